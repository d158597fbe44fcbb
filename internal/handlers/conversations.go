package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// ConversationHandler manages hospital to blood bank messaging threads.
type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type openConversationRequest struct {
	OtherPartyID    string  `json:"other_party_id" validate:"required"`
	EmergencyPostID *string `json:"emergency_post_id"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// POST /api/conversations
//
// Opens the thread for the caller and the other party, creating it when
// absent. The response reports whether a new thread was created so clients
// can treat an existing thread as an advisory rather than a failure.
func (h *ConversationHandler) Open(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req openConversationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.GetOrCreateConversationInput{EmergencyPostID: req.EmergencyPostID}
	switch currentRole(c) {
	case models.RoleHospital:
		input.HospitalID = userID
		input.BloodBankID = req.OtherPartyID
	case models.RoleBloodBank:
		input.HospitalID = req.OtherPartyID
		input.BloodBankID = userID
	default:
		response.Error(c, errors.ErrForbidden)
		return
	}

	conversation, created, err := h.conversations.GetOrCreate(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{
		"conversation": conversation,
		"created":      created,
	})
}

// GET /api/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	conversations, err := h.conversations.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, conversations)
}

// GET /api/conversations/:id/messages
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	messages, err := h.conversations.ListMessages(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, messages)
}

// POST /api/conversations/:id/messages
func (h *ConversationHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req sendMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.conversations.Send(requestContext(c), c.Param("id"), userID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, message)
}

// POST /api/conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.conversations.MarkRead(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}
