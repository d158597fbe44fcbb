package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/bloodlink/bloodlink/internal/auth"
	testutil "github.com/bloodlink/bloodlink/internal/database/testutil"
	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/pkg/crypto"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	clock := fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
		Clock:          clock.Now,
	})
	require.NoError(t, err)

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		RefreshLength:   16,
		Clock:           clock.Now,
	})
	require.NoError(t, err)

	inventorySvc, err := services.NewInventoryService(db, nil)
	require.NoError(t, err)
	emergencySvc, err := services.NewEmergencyService(db, inventorySvc, nil)
	require.NoError(t, err)

	user := seedHospital(t, db, "cleanup-hospital")

	_, expiredSession, err := sessionSvc.CreateSession(user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", expiredSession.ID).
		Update("expires_at", clock.Now().Add(-2*time.Hour)).Error)

	_, activeSession, err := sessionSvc.CreateSession(user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)

	stalePost := models.EmergencyPost{
		PostedBy:     user.ID,
		BloodGroup:   "O+",
		Quantity:     2,
		Location:     "Springfield General",
		UrgencyLevel: models.UrgencyHigh,
		ContactPhone: "555-0199",
		Status:       models.PostStatusActive,
	}
	require.NoError(t, db.Create(&stalePost).Error)
	require.NoError(t, db.Model(&stalePost).
		Update("created_at", clock.Now().AddDate(0, 0, -10)).Error)

	freshPost := models.EmergencyPost{
		PostedBy:     user.ID,
		BloodGroup:   "A-",
		Quantity:     1,
		Location:     "Springfield General",
		UrgencyLevel: models.UrgencyHigh,
		ContactPhone: "555-0199",
		Status:       models.PostStatusActive,
	}
	require.NoError(t, db.Create(&freshPost).Error)

	c := NewCleaner(sessionSvc, emergencySvc,
		WithNow(clock.Now),
		WithPostRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, c.RunOnce(context.Background()))

	var gone models.Session
	err = db.First(&gone, "id = ?", expiredSession.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var remaining models.Session
	require.NoError(t, db.First(&remaining, "id = ?", activeSession.ID).Error)

	var expired models.EmergencyPost
	require.NoError(t, db.First(&expired, "id = ?", stalePost.ID).Error)
	require.Equal(t, models.PostStatusExpired, expired.Status)

	var active models.EmergencyPost
	require.NoError(t, db.First(&active, "id = ?", freshPost.ID).Error)
	require.Equal(t, models.PostStatusActive, active.Status)
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)

	sched := cron.New(cron.WithLogger(cron.DiscardLogger))
	c := NewCleaner(sessionSvc, nil, WithCron(sched))

	require.NoError(t, c.Start())
	require.Len(t, sched.Entries(), 1)
	<-c.Stop().Done()
}

func seedHospital(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)

	user := &models.User{
		Email:    name + "@example.com",
		Password: hash,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	profile := &models.Profile{
		ID:               user.ID,
		Role:             models.RoleHospital,
		FullName:         "Cleanup Hospital Admin",
		OrganizationName: "Cleanup Hospital",
	}
	require.NoError(t, db.Create(profile).Error)
	return user
}

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}
