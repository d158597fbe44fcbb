package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/pkg/crypto"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/metrics"
)

// RegisterInput captures a sign-up request.
type RegisterInput struct {
	Email            string
	Password         string
	FullName         string
	Role             string
	Phone            string
	OrganizationName string
}

// AccountDTO is the authenticated account payload.
type AccountDTO struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
	Profile   *models.Profile `json:"profile,omitempty"`
}

// AccountService handles registration, credential checks and account removal.
type AccountService struct {
	db *gorm.DB
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	return &AccountService{db: db}, nil
}

// Register creates the user and its profile in a single transaction.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AccountDTO, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}
	if !models.ValidRole(input.Role) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown role %q", input.Role))
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, apperrors.NewBadRequest("full name is required")
	}
	organization := strings.TrimSpace(input.OrganizationName)
	if input.Role != models.RoleVolunteer && organization == "" {
		return nil, apperrors.NewBadRequest("organization name is required for institutional accounts")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	user := models.User{
		Email:    email,
		Password: hashed,
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.Profile{
			ID:               user.ID,
			Role:             input.Role,
			FullName:         fullName,
			Phone:            strings.TrimSpace(input.Phone),
			OrganizationName: organization,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register_failure").Inc()
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("account service: register: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("register_success").Inc()
	return s.Get(ctx, user.ID)
}

// Authenticate verifies credentials and records the login.
func (s *AccountService) Authenticate(ctx context.Context, email, password, ipAddress string) (*AccountDTO, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	updates := map[string]any{"last_login_at": now}
	if ip := strings.TrimSpace(ipAddress); ip != "" {
		updates["last_login_ip"] = ip
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("account service: record login: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return mapAccount(user), nil
}

// Get loads an account with its profile.
func (s *AccountService) Get(ctx context.Context, userID string) (*AccountDTO, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("account service: user id is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	return mapAccount(user), nil
}

// Delete removes the account and every row it owns in one transaction.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("account service: user id is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Take(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		var postIDs []string
		if err := tx.Model(&models.EmergencyPost{}).
			Where("posted_by = ?", userID).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("emergency_id IN ?", postIDs).Delete(&models.Participation{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.EmergencyPost{}).Error; err != nil {
				return err
			}
		}

		var conversationIDs []string
		if err := tx.Model(&models.Conversation{}).
			Where("hospital_id = ? OR blood_bank_id = ?", userID, userID).
			Pluck("id", &conversationIDs).Error; err != nil {
			return err
		}
		if len(conversationIDs) > 0 {
			if err := tx.Where("conversation_id IN ?", conversationIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", conversationIDs).Delete(&models.Conversation{}).Error; err != nil {
				return err
			}
		}

		steps := []*gorm.DB{
			tx.Where("volunteer_id = ?", userID).Delete(&models.Participation{}),
			tx.Where("volunteer_id = ? OR hospital_id = ?", userID, userID).Delete(&models.Appointment{}),
			tx.Where("blood_bank_id = ?", userID).Delete(&models.InventoryItem{}),
			tx.Where("user_id = ?", userID).Delete(&models.Session{}),
			tx.Where("id = ?", userID).Delete(&models.Profile{}),
			tx.Where("id = ?", userID).Delete(&models.User{}),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("account service: delete account: %w", err)
	}
	return nil
}

func mapAccount(user models.User) *AccountDTO {
	return &AccountDTO{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Profile:   user.Profile,
	}
}
