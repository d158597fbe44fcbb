package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// EmergencyHandler serves the request submission flow and the public feed.
type EmergencyHandler struct {
	emergencies *services.EmergencyService
}

func NewEmergencyHandler(emergencies *services.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{emergencies: emergencies}
}

type submitEmergencyRequest struct {
	BloodGroup   string `json:"blood_group" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,min=1"`
	Location     string `json:"location" validate:"required"`
	UrgencyLevel string `json:"urgency_level" validate:"required"`
	Description  string `json:"description"`
	ContactPhone string `json:"contact_phone" validate:"required"`
}

type updatePostStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *EmergencyHandler) submitInput(c *gin.Context, req submitEmergencyRequest) services.SubmitEmergencyInput {
	userID, _ := currentUserID(c)
	return services.SubmitEmergencyInput{
		PosterID:     userID,
		PosterRole:   currentRole(c),
		BloodGroup:   req.BloodGroup,
		Quantity:     req.Quantity,
		Location:     req.Location,
		UrgencyLevel: req.UrgencyLevel,
		Description:  req.Description,
		ContactPhone: req.ContactPhone,
	}
}

// POST /api/emergencies
func (h *EmergencyHandler) Submit(c *gin.Context) {
	var req submitEmergencyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.emergencies.Submit(requestContext(c), h.submitInput(c, req))
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Post == nil {
		// Availability was found, no post created yet
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// POST /api/emergencies/post-anyway
func (h *EmergencyHandler) PostAnyway(c *gin.Context) {
	var req submitEmergencyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.emergencies.PostAnyway(requestContext(c), h.submitInput(c, req))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GET /api/emergencies
func (h *EmergencyHandler) Feed(c *gin.Context) {
	input := services.ListActiveInput{
		BloodGroup:     c.Query("blood_group"),
		City:           c.Query("city"),
		Urgency:        c.Query("urgency"),
		DonorBloodType: c.Query("donor_blood_type"),
		Limit:          parseIntQuery(c, "limit", 0),
		Offset:         parseIntQuery(c, "offset", 0),
	}

	posts, err := h.emergencies.ListActive(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, posts)
}

// GET /api/emergencies/mine
func (h *EmergencyHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	posts, err := h.emergencies.ListForPoster(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, posts)
}

// GET /api/emergencies/:id
func (h *EmergencyHandler) Get(c *gin.Context) {
	post, err := h.emergencies.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, post)
}

// PATCH /api/emergencies/:id/status
func (h *EmergencyHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updatePostStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.emergencies.UpdateStatus(requestContext(c), c.Param("id"), userID, req.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// DELETE /api/emergencies/:id
func (h *EmergencyHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.emergencies.Delete(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
