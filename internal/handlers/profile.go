package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/internal/storage"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// ProfileHandler serves the caller's own profile and public profile views.
type ProfileHandler struct {
	profiles *services.ProfileService
	avatars  *storage.AvatarStore
}

// NewProfileHandler constructs a ProfileHandler. avatars may be nil when
// object storage is disabled.
func NewProfileHandler(profiles *services.ProfileService, avatars *storage.AvatarStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, avatars: avatars}
}

type updateProfileRequest struct {
	FullName         *string `json:"full_name"`
	Phone            *string `json:"phone"`
	OrganizationName *string `json:"organization_name"`

	Age                  *int     `json:"age"`
	Gender               *string  `json:"gender"`
	Weight               *float64 `json:"weight"`
	BloodType            *string  `json:"blood_type"`
	City                 *string  `json:"city"`
	Location             *string  `json:"location"`
	SmokingHabit         *string  `json:"smoking_habit"`
	DrinkingHabit        *string  `json:"drinking_habit"`
	JobDescription       *string  `json:"job_description"`
	StressLevel          *string  `json:"stress_level"`
	BloodSugarLevel      *string  `json:"blood_sugar_level"`
	MajorDiseasesHistory *string  `json:"major_diseases_history"`
	PreviousDonation     *bool    `json:"previous_donation"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	profile, err := h.profiles.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Update(requestContext(c), userID, services.UpdateProfileInput{
		FullName:             req.FullName,
		Phone:                req.Phone,
		OrganizationName:     req.OrganizationName,
		Age:                  req.Age,
		Gender:               req.Gender,
		Weight:               req.Weight,
		BloodType:            req.BloodType,
		City:                 req.City,
		Location:             req.Location,
		SmokingHabit:         req.SmokingHabit,
		DrinkingHabit:        req.DrinkingHabit,
		JobDescription:       req.JobDescription,
		StressLevel:          req.StressLevel,
		BloodSugarLevel:      req.BloodSugarLevel,
		MajorDiseasesHistory: req.MajorDiseasesHistory,
		PreviousDonation:     req.PreviousDonation,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// GET /api/profiles/:id
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	profile, err := h.profiles.GetPublic(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if h.avatars == nil {
		response.Error(c, errors.NewBadRequest("avatar storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, errors.NewBadRequest("avatar file is required"))
		return
	}
	if fileHeader.Size > storage.MaxAvatarBytes {
		response.Error(c, errors.NewBadRequest("avatar exceeds the maximum allowed size"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}
	defer file.Close()

	url, err := h.avatars.Upload(requestContext(c), userID, fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.profiles.SetProfilePicture(requestContext(c), userID, url); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"profile_picture_url": url})
}
