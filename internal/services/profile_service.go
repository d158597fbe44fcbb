package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/pkg/blood"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
)

// UpdateProfileInput carries a partial profile update. Nil pointers leave the
// stored value untouched.
type UpdateProfileInput struct {
	FullName         *string
	Phone            *string
	OrganizationName *string

	Age                  *int
	Gender               *string
	Weight               *float64
	BloodType            *string
	City                 *string
	Location             *string
	SmokingHabit         *string
	DrinkingHabit        *string
	JobDescription       *string
	StressLevel          *string
	BloodSugarLevel      *string
	MajorDiseasesHistory *string
	PreviousDonation     *bool
}

// PublicProfile is the reduced view exposed to other users.
type PublicProfile struct {
	ID                string `json:"id"`
	Role              string `json:"role"`
	DisplayName       string `json:"display_name"`
	City              string `json:"city,omitempty"`
	Phone             string `json:"phone,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// ProfileService reads and updates account profiles.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// Get returns the user's own profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("profile service: user id is required")
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Take(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}
	return &profile, nil
}

// GetPublic returns the reduced profile view shown to other users.
func (s *ProfileService) GetPublic(ctx context.Context, userID string) (*PublicProfile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		ID:                profile.ID,
		Role:              profile.Role,
		DisplayName:       profile.DisplayName(),
		City:              profile.City,
		Phone:             profile.Phone,
		ProfilePictureURL: profile.ProfilePictureURL,
	}, nil
}

// Update applies a partial update to the user's own profile. Saving the
// volunteer detail form (demographics present) marks the profile complete.
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, apperrors.NewBadRequest("full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.OrganizationName != nil {
		if profile.Role == models.RoleVolunteer {
			return nil, apperrors.NewBadRequest("volunteers do not have an organization name")
		}
		updates["organization_name"] = strings.TrimSpace(*input.OrganizationName)
	}

	if input.BloodType != nil {
		group, err := blood.Parse(*input.BloodType)
		if err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown blood group %q", *input.BloodType))
		}
		updates["blood_type"] = group.String()
	}
	if input.Age != nil {
		if *input.Age < 18 || *input.Age > 120 {
			return nil, apperrors.NewBadRequest("age must be between 18 and 120")
		}
		updates["age"] = *input.Age
	}
	if input.Weight != nil {
		if *input.Weight <= 0 {
			return nil, apperrors.NewBadRequest("weight must be positive")
		}
		updates["weight"] = *input.Weight
	}
	if input.Gender != nil {
		updates["gender"] = strings.TrimSpace(*input.Gender)
	}
	if input.City != nil {
		updates["city"] = strings.TrimSpace(*input.City)
	}
	if input.Location != nil {
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.SmokingHabit != nil {
		updates["smoking_habit"] = strings.TrimSpace(*input.SmokingHabit)
	}
	if input.DrinkingHabit != nil {
		updates["drinking_habit"] = strings.TrimSpace(*input.DrinkingHabit)
	}
	if input.JobDescription != nil {
		updates["job_description"] = strings.TrimSpace(*input.JobDescription)
	}
	if input.StressLevel != nil {
		updates["stress_level"] = strings.TrimSpace(*input.StressLevel)
	}
	if input.BloodSugarLevel != nil {
		updates["blood_sugar_level"] = strings.TrimSpace(*input.BloodSugarLevel)
	}
	if input.MajorDiseasesHistory != nil {
		updates["major_diseases_history"] = strings.TrimSpace(*input.MajorDiseasesHistory)
	}
	if input.PreviousDonation != nil {
		updates["previous_donation"] = *input.PreviousDonation
	}

	if profile.Role == models.RoleVolunteer && !profile.ProfileCompleted {
		if volunteerDetailComplete(profile, input) {
			updates["profile_completed"] = true
		}
	}

	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile service: update profile: %w", err)
	}

	return s.Get(ctx, userID)
}

// SetProfilePicture stores the public URL of the uploaded avatar.
func (s *ProfileService) SetProfilePicture(ctx context.Context, userID, url string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("profile service: user id is required")
	}

	result := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("profile_picture_url", strings.TrimSpace(url))
	if result.Error != nil {
		return fmt.Errorf("profile service: set profile picture: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// volunteerDetailComplete reports whether, after the update, the volunteer has
// supplied the demographic minimum that unlocks the dashboard.
func volunteerDetailComplete(profile *models.Profile, input UpdateProfileInput) bool {
	age := profile.Age
	if input.Age != nil {
		age = input.Age
	}
	weight := profile.Weight
	if input.Weight != nil {
		weight = input.Weight
	}
	bloodType := profile.BloodType
	if input.BloodType != nil {
		bloodType = *input.BloodType
	}
	city := profile.City
	if input.City != nil {
		city = *input.City
	}
	return age != nil && weight != nil &&
		strings.TrimSpace(bloodType) != "" && strings.TrimSpace(city) != ""
}
