package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bloodlink/bloodlink/internal/models"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
)

func TestRecordParticipationSnapshotsVolunteerDetails(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewParticipationService(db, nil)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)
	post := seedPost(t, db, hospital.ID, "O-", 4)

	age := 28
	weight := 72.5

	dto, err := svc.Record(context.Background(), RecordParticipationInput{
		EmergencyID:   post.ID,
		VolunteerID:   volunteer.ID,
		VolunteerName: "Vol Unteer",
		Age:           &age,
		Gender:        "female",
		Weight:        &weight,
		City:          "Springfield",
		ContactNumber: "555-0123",
		Message:       "I can come this afternoon",
		Health:        map[string]any{"previous_donation": true},
	})
	require.NoError(t, err)
	require.Equal(t, models.ParticipationPending, dto.Status)
	require.Equal(t, "Vol Unteer", dto.VolunteerName)
	require.Equal(t, 28, *dto.Age)
	require.Equal(t, "Springfield", dto.City)

	var stored models.Participation
	require.NoError(t, db.Take(&stored, "id = ?", dto.ID).Error)
	require.Equal(t, post.ID, stored.EmergencyID)
	require.NotEmpty(t, stored.HealthSnapshot)

	// Editing the profile afterwards must not rewrite the snapshot.
	require.NoError(t, db.Model(&models.Profile{}).
		Where("id = ?", volunteer.ID).
		Update("full_name", "Renamed").Error)
	require.NoError(t, db.Take(&stored, "id = ?", dto.ID).Error)
	require.Equal(t, "Vol Unteer", stored.VolunteerName)
}

func TestRecordParticipationRequiresActivePost(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewParticipationService(db, nil)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)
	post := seedPost(t, db, hospital.ID, "O-", 4)

	require.NoError(t, db.Model(post).Update("status", models.PostStatusClosed).Error)

	_, err = svc.Record(context.Background(), RecordParticipationInput{
		EmergencyID:   post.ID,
		VolunteerID:   volunteer.ID,
		VolunteerName: "Vol Unteer",
		ContactNumber: "555-0123",
	})
	require.Error(t, err)

	_, err = svc.Record(context.Background(), RecordParticipationInput{
		EmergencyID:   "missing-post",
		VolunteerID:   volunteer.ID,
		VolunteerName: "Vol Unteer",
		ContactNumber: "555-0123",
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListForPostRestrictedToOwner(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewParticipationService(db, nil)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	stranger := seedAccount(t, db, "stranger@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)
	post := seedPost(t, db, hospital.ID, "B-", 2)

	_, err = svc.Record(context.Background(), RecordParticipationInput{
		EmergencyID:   post.ID,
		VolunteerID:   volunteer.ID,
		VolunteerName: "Vol Unteer",
		ContactNumber: "555-0123",
	})
	require.NoError(t, err)

	_, err = svc.ListForPost(context.Background(), post.ID, stranger.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	rows, err := svc.ListForPost(context.Background(), post.ID, hospital.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestUpdateParticipationStatus(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewParticipationService(db, nil)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	stranger := seedAccount(t, db, "stranger@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)
	post := seedPost(t, db, hospital.ID, "B-", 2)

	dto, err := svc.Record(context.Background(), RecordParticipationInput{
		EmergencyID:   post.ID,
		VolunteerID:   volunteer.ID,
		VolunteerName: "Vol Unteer",
		ContactNumber: "555-0123",
	})
	require.NoError(t, err)

	require.Error(t, svc.UpdateStatus(context.Background(), dto.ID, hospital.ID, "approved"))
	require.ErrorIs(t, svc.UpdateStatus(context.Background(), dto.ID, stranger.ID, models.ParticipationAccepted), apperrors.ErrForbidden)
	require.NoError(t, svc.UpdateStatus(context.Background(), dto.ID, hospital.ID, models.ParticipationAccepted))

	var stored models.Participation
	require.NoError(t, db.Take(&stored, "id = ?", dto.ID).Error)
	require.Equal(t, models.ParticipationAccepted, stored.Status)
}

func TestListForVolunteer(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewParticipationService(db, nil)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)

	for i := 0; i < 2; i++ {
		post := seedPost(t, db, hospital.ID, "O+", 1)
		_, err = svc.Record(context.Background(), RecordParticipationInput{
			EmergencyID:   post.ID,
			VolunteerID:   volunteer.ID,
			VolunteerName: "Vol Unteer",
			ContactNumber: "555-0123",
		})
		require.NoError(t, err)
	}

	rows, err := svc.ListForVolunteer(context.Background(), volunteer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRecordParticipationRequiresContactNumber(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewParticipationService(db, nil)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)
	post := seedPost(t, db, hospital.ID, "O-", 4)

	_, err = svc.Record(context.Background(), RecordParticipationInput{
		EmergencyID:   post.ID,
		VolunteerID:   volunteer.ID,
		VolunteerName: "Vol Unteer",
		ContactNumber: "   ",
	})
	require.Error(t, err)
	require.Equal(t, "BAD_REQUEST", apperrors.FromError(err).Code)

	var count int64
	require.NoError(t, db.Model(&models.Participation{}).Count(&count).Error)
	require.Zero(t, count)
}
