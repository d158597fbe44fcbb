package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/database/testutil"
	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/pkg/crypto"
)

func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedAccount(t *testing.T, db *gorm.DB, email, role string) *models.Profile {
	t.Helper()

	hashed, err := crypto.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:    email,
		Password: hashed,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	profile := &models.Profile{
		ID:       user.ID,
		Role:     role,
		FullName: "Test " + role,
		Phone:    "555-0100",
	}
	if role != models.RoleVolunteer {
		profile.OrganizationName = "Org " + email
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func seedInventory(t *testing.T, db *gorm.DB, bankID, city, group string, quantity int) *models.InventoryItem {
	t.Helper()

	item := &models.InventoryItem{
		BloodBankID: bankID,
		City:        city,
		BloodGroup:  group,
		Quantity:    quantity,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedPost(t *testing.T, db *gorm.DB, posterID, group string, quantity int) *models.EmergencyPost {
	t.Helper()

	post := &models.EmergencyPost{
		PostedBy:     posterID,
		BloodGroup:   group,
		Quantity:     quantity,
		Location:     "Springfield General",
		UrgencyLevel: models.UrgencyHigh,
		ContactPhone: "555-0199",
		Status:       models.PostStatusActive,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
