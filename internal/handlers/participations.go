package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// ParticipationHandler records volunteer responses to emergency posts.
type ParticipationHandler struct {
	participations *services.ParticipationService
	profiles       *services.ProfileService
}

func NewParticipationHandler(participations *services.ParticipationService, profiles *services.ProfileService) *ParticipationHandler {
	return &ParticipationHandler{participations: participations, profiles: profiles}
}

type recordParticipationRequest struct {
	EmergencyID   string         `json:"emergency_id" validate:"required"`
	ContactNumber string         `json:"contact_number"`
	Message       string         `json:"message"`
	Health        map[string]any `json:"health"`
}

type updateParticipationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// POST /api/participations
//
// The volunteer's demographics are snapshotted from the profile at record
// time so later profile edits do not rewrite what the poster saw.
func (h *ParticipationHandler) Record(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req recordParticipationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// The form pre-fills the contact number from the profile; accept an
	// override but fall back to the stored phone.
	contact := strings.TrimSpace(req.ContactNumber)
	if contact == "" {
		contact = profile.Phone
	}

	participation, err := h.participations.Record(requestContext(c), services.RecordParticipationInput{
		EmergencyID:   req.EmergencyID,
		VolunteerID:   userID,
		VolunteerName: profile.FullName,
		Age:           profile.Age,
		Gender:        profile.Gender,
		Weight:        profile.Weight,
		City:          profile.City,
		ContactNumber: contact,
		Message:       req.Message,
		Health:        req.Health,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, participation)
}

// GET /api/participations/mine
func (h *ParticipationHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	participations, err := h.participations.ListForVolunteer(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, participations)
}

// GET /api/emergencies/:id/participations
func (h *ParticipationHandler) ListForPost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	participations, err := h.participations.ListForPost(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, participations)
}

// PATCH /api/participations/:id/status
func (h *ParticipationHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateParticipationStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.participations.UpdateStatus(requestContext(c), c.Param("id"), userID, req.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
