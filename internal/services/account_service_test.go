package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bloodlink/bloodlink/internal/models"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
)

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewAccountService(db)
	require.NoError(t, err)

	account, err := svc.Register(context.Background(), RegisterInput{
		Email:            "Cityderm@Example.COM",
		Password:         "password123",
		FullName:         "City Hospital Admin",
		Role:             models.RoleHospital,
		Phone:            "555-0100",
		OrganizationName: "City Hospital",
	})
	require.NoError(t, err)
	require.Equal(t, "cityderm@example.com", account.Email)
	require.NotNil(t, account.Profile)
	require.Equal(t, models.RoleHospital, account.Profile.Role)
	require.Equal(t, "City Hospital", account.Profile.OrganizationName)
	require.False(t, account.Profile.ProfileCompleted)

	var user models.User
	require.NoError(t, db.Take(&user, "id = ?", account.ID).Error)
	require.NotEqual(t, "password123", user.Password)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewAccountService(db)
	require.NoError(t, err)

	input := RegisterInput{
		Email:    "dupe@example.com",
		Password: "password123",
		FullName: "Vol Unteer",
		Role:     models.RoleVolunteer,
	}

	_, err = svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)
	require.ErrorContains(t, err, "already exists")
}

func TestRegisterValidation(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewAccountService(db)
	require.NoError(t, err)

	cases := []RegisterInput{
		{Email: "", Password: "password123", FullName: "X", Role: models.RoleVolunteer},
		{Email: "a@example.com", Password: "short", FullName: "X", Role: models.RoleVolunteer},
		{Email: "a@example.com", Password: "password123", FullName: "X", Role: "admin"},
		{Email: "a@example.com", Password: "password123", FullName: "", Role: models.RoleVolunteer},
		{Email: "a@example.com", Password: "password123", FullName: "X", Role: models.RoleHospital},
	}

	for _, input := range cases {
		_, err := svc.Register(context.Background(), input)
		require.Error(t, err, "email=%s role=%s", input.Email, input.Role)
	}
}

func TestAuthenticate(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewAccountService(db)
	require.NoError(t, err)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email:    "vol@example.com",
		Password: "password123",
		FullName: "Vol Unteer",
		Role:     models.RoleVolunteer,
	})
	require.NoError(t, err)

	account, err := svc.Authenticate(context.Background(), "VOL@example.com", "password123", "10.0.0.9")
	require.NoError(t, err)
	require.Equal(t, registered.ID, account.ID)

	var user models.User
	require.NoError(t, db.Take(&user, "id = ?", account.ID).Error)
	require.NotNil(t, user.LastLoginAt)
	require.Equal(t, "10.0.0.9", user.LastLoginIP)

	_, err = svc.Authenticate(context.Background(), "vol@example.com", "wrong-password", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "password123", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewAccountService(db)
	require.NoError(t, err)

	account, err := svc.Register(context.Background(), RegisterInput{
		Email:    "vol@example.com",
		Password: "password123",
		FullName: "Vol Unteer",
		Role:     models.RoleVolunteer,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", account.ID).
		Update("is_active", false).Error)

	_, err = svc.Authenticate(context.Background(), "vol@example.com", "password123", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestDeleteAccountCascades(t *testing.T) {
	db := openServiceDB(t)
	svc, err := NewAccountService(db)
	require.NoError(t, err)

	hospital := seedAccount(t, db, "hospital@example.com", models.RoleHospital)
	bank := seedAccount(t, db, "bank@example.com", models.RoleBloodBank)
	volunteer := seedAccount(t, db, "volunteer@example.com", models.RoleVolunteer)

	post := seedPost(t, db, hospital.ID, "O-", 2)
	require.NoError(t, db.Create(&models.Participation{
		EmergencyID:   post.ID,
		VolunteerID:   volunteer.ID,
		Status:        models.ParticipationPending,
		VolunteerName: "Vol Unteer",
		ContactNumber: "555-0123",
	}).Error)

	conversation := models.Conversation{HospitalID: hospital.ID, BloodBankID: bank.ID}
	require.NoError(t, db.Create(&conversation).Error)
	require.NoError(t, db.Create(&models.Message{
		ConversationID: conversation.ID,
		SenderID:       hospital.ID,
		Content:        "hello",
	}).Error)

	require.NoError(t, db.Create(&models.Appointment{
		VolunteerID:     volunteer.ID,
		HospitalID:      hospital.ID,
		AppointmentDate: time.Now().Add(48 * time.Hour),
		Status:          models.AppointmentPending,
	}).Error)

	require.NoError(t, svc.Delete(context.Background(), hospital.ID))

	counts := map[string]int64{}
	for name, model := range map[string]any{
		"users":         &models.User{},
		"profiles":      &models.Profile{},
		"posts":         &models.EmergencyPost{},
		"participation": &models.Participation{},
		"conversations": &models.Conversation{},
		"messages":      &models.Message{},
		"appointments":  &models.Appointment{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		counts[name] = count
	}

	require.EqualValues(t, 2, counts["users"])
	require.EqualValues(t, 2, counts["profiles"])
	require.Zero(t, counts["posts"])
	require.Zero(t, counts["participation"])
	require.Zero(t, counts["conversations"])
	require.Zero(t, counts["messages"])
	require.Zero(t, counts["appointments"])

	require.ErrorIs(t, svc.Delete(context.Background(), hospital.ID), apperrors.ErrNotFound)
}
