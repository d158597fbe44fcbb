package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
)

func newAppointmentService(t *testing.T, db *gorm.DB, now time.Time) *AppointmentService {
	t.Helper()

	svc, err := NewAppointmentService(db, nil)
	require.NoError(t, err)
	return svc.WithClock(func() time.Time { return now })
}

func TestBookAppointmentCreatesPendingRow(t *testing.T) {
	db := openServiceDB(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newAppointmentService(t, db, now)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)
	post := seedPost(t, db, hospital.ID, "O-", 2)

	dto, err := svc.Book(context.Background(), BookAppointmentInput{
		VolunteerID:     volunteer.ID,
		HospitalID:      hospital.ID,
		EmergencyPostID: &post.ID,
		AppointmentDate: now.Add(48 * time.Hour),
		Notes:           "morning slot preferred",
	})
	require.NoError(t, err)
	require.Equal(t, models.AppointmentPending, dto.Status)
	require.Equal(t, hospital.OrganizationName, dto.HospitalName)
	require.NotNil(t, dto.EmergencyPostID)
	require.Equal(t, post.ID, *dto.EmergencyPostID)

	var stored models.Appointment
	require.NoError(t, db.Take(&stored, "id = ?", dto.ID).Error)
	require.Equal(t, volunteer.ID, stored.VolunteerID)
}

func TestBookAppointmentRejectsPastDate(t *testing.T) {
	db := openServiceDB(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newAppointmentService(t, db, now)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)

	_, err := svc.Book(context.Background(), BookAppointmentInput{
		VolunteerID:     volunteer.ID,
		HospitalID:      hospital.ID,
		AppointmentDate: now.Add(-time.Hour),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestBookAppointmentRequiresHospitalRole(t *testing.T) {
	db := openServiceDB(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newAppointmentService(t, db, now)

	bank := seedAccount(t, db, "bank@example.com", models.RoleBloodBank)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)

	_, err := svc.Book(context.Background(), BookAppointmentInput{
		VolunteerID:     volunteer.ID,
		HospitalID:      bank.ID,
		AppointmentDate: now.Add(time.Hour),
	})
	require.Error(t, err)

	_, err = svc.Book(context.Background(), BookAppointmentInput{
		VolunteerID:     volunteer.ID,
		HospitalID:      "missing",
		AppointmentDate: now.Add(time.Hour),
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHospitalsListsOnlyHospitals(t *testing.T) {
	db := openServiceDB(t)
	svc := newAppointmentService(t, db, time.Now())

	seedAccount(t, db, "hospital-a@example.com", models.RoleHospital)
	seedAccount(t, db, "hospital-b@example.com", models.RoleHospital)
	seedAccount(t, db, "bank@example.com", models.RoleBloodBank)
	seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)

	options, err := svc.Hospitals(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)
	for _, option := range options {
		require.NotEmpty(t, option.OrganizationName)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	db := openServiceDB(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newAppointmentService(t, db, now)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	stranger := seedAccount(t, db, "stranger@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)

	dto, err := svc.Book(context.Background(), BookAppointmentInput{
		VolunteerID:     volunteer.ID,
		HospitalID:      hospital.ID,
		AppointmentDate: now.Add(time.Hour),
	})
	require.NoError(t, err)

	require.Error(t, svc.UpdateStatus(context.Background(), dto.ID, hospital.ID, "done"))
	require.ErrorIs(t, svc.UpdateStatus(context.Background(), dto.ID, stranger.ID, models.AppointmentConfirmed), apperrors.ErrNotFound)
	require.NoError(t, svc.UpdateStatus(context.Background(), dto.ID, hospital.ID, models.AppointmentConfirmed))

	appointments, err := svc.ListForHospital(context.Background(), hospital.ID)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	require.Equal(t, models.AppointmentConfirmed, appointments[0].Status)

	mine, err := svc.ListForVolunteer(context.Background(), volunteer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}
