package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/realtime"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
)

// ConversationDTO is the API-friendly conversation payload.
type ConversationDTO struct {
	ID              string    `json:"id"`
	HospitalID      string    `json:"hospital_id"`
	BloodBankID     string    `json:"blood_bank_id"`
	EmergencyPostID *string   `json:"emergency_post_id,omitempty"`
	OtherPartyID    string    `json:"other_party_id,omitempty"`
	OtherPartyName  string    `json:"other_party_name,omitempty"`
	UnreadCount     int64     `json:"unread_count"`
	LastMessage     string    `json:"last_message,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// MessageDTO is the API-friendly message payload.
type MessageDTO struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetOrCreateConversationInput identifies the hospital/blood-bank pair.
type GetOrCreateConversationInput struct {
	HospitalID      string
	BloodBankID     string
	EmergencyPostID *string
}

// ConversationService manages hospital to blood bank messaging threads.
type ConversationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB, hub *realtime.Hub) (*ConversationService, error) {
	if db == nil {
		return nil, errors.New("conversation service: db is required")
	}
	return &ConversationService{db: db, hub: hub}, nil
}

// GetOrCreate returns the conversation for the pair, creating it when absent.
// The second return value reports whether a new thread was created; an
// existing thread is an advisory rather than an error.
func (s *ConversationService) GetOrCreate(ctx context.Context, input GetOrCreateConversationInput) (*ConversationDTO, bool, error) {
	ctx = ensureContext(ctx)

	hospitalID := strings.TrimSpace(input.HospitalID)
	bloodBankID := strings.TrimSpace(input.BloodBankID)
	if hospitalID == "" || bloodBankID == "" {
		return nil, false, errors.New("conversation service: hospital id and blood bank id are required")
	}
	if input.EmergencyPostID != nil && strings.TrimSpace(*input.EmergencyPostID) == "" {
		input.EmergencyPostID = nil
	}

	existing, err := s.findPair(ctx, hospitalID, bloodBankID, input.EmergencyPostID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		dto := mapConversation(*existing)
		return &dto, false, nil
	}

	conversation := models.Conversation{
		HospitalID:      hospitalID,
		BloodBankID:     bloodBankID,
		EmergencyPostID: input.EmergencyPostID,
	}

	err = s.db.WithContext(ctx).Create(&conversation).Error
	if err == nil {
		dto := mapConversation(conversation)
		return &dto, true, nil
	}
	if !isUniqueConstraintError(err) {
		return nil, false, fmt.Errorf("conversation service: create conversation: %w", err)
	}

	// A concurrent caller won the insert; hand back their thread.
	existing, err = s.findPair(ctx, hospitalID, bloodBankID, input.EmergencyPostID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("conversation service: conversation vanished after conflict")
	}

	dto := mapConversation(*existing)
	return &dto, false, nil
}

func (s *ConversationService) findPair(ctx context.Context, hospitalID, bloodBankID string, postID *string) (*models.Conversation, error) {
	query := s.db.WithContext(ctx).
		Where("hospital_id = ? AND blood_bank_id = ?", hospitalID, bloodBankID)
	if postID == nil {
		query = query.Where("emergency_post_id IS NULL")
	} else {
		query = query.Where("emergency_post_id = ?", *postID)
	}

	var conversation models.Conversation
	err := query.Take(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation service: load conversation: %w", err)
	}
	return &conversation, nil
}

// ListForUser returns conversations the user takes part in, newest activity
// first, annotated with the other party's name and the unread count.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]ConversationDTO, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("conversation service: user id is required")
	}

	var conversations []models.Conversation
	if err := s.db.WithContext(ctx).
		Where("hospital_id = ? OR blood_bank_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("conversation service: list conversations: %w", err)
	}

	dtos := make([]ConversationDTO, 0, len(conversations))
	for _, conversation := range conversations {
		dto := mapConversation(conversation)
		dto.OtherPartyID = conversation.OtherParty(userID)

		var profile models.Profile
		if err := s.db.WithContext(ctx).Take(&profile, "id = ?", dto.OtherPartyID).Error; err == nil {
			dto.OtherPartyName = profile.DisplayName()
		}

		if err := s.db.WithContext(ctx).
			Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversation.ID, userID, false).
			Count(&dto.UnreadCount).Error; err != nil {
			return nil, fmt.Errorf("conversation service: count unread: %w", err)
		}

		var last models.Message
		if err := s.db.WithContext(ctx).
			Where("conversation_id = ?", conversation.ID).
			Order("created_at DESC").
			Take(&last).Error; err == nil {
			dto.LastMessage = last.Content
		}

		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// Send appends a message to a conversation the sender belongs to.
func (s *ConversationService) Send(ctx context.Context, conversationID, senderID, content string) (*MessageDTO, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("message content is required")
	}

	conversation, err := s.loadForParty(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       strings.TrimSpace(senderID),
		Content:        content,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversation.ID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, fmt.Errorf("conversation service: send message: %w", err)
	}

	dto := mapMessage(message)
	if s.hub != nil {
		change := realtime.Change(realtime.StreamMessages, realtime.EventInsert, dto)
		s.hub.BroadcastToUsers(realtime.StreamMessages,
			[]string{conversation.HospitalID, conversation.BloodBankID}, change)
	}
	return &dto, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, userID string) ([]MessageDTO, error) {
	ctx = ensureContext(ctx)

	conversation, err := s.loadForParty(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	var rows []models.Message
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("conversation service: list messages: %w", err)
	}

	dtos := make([]MessageDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, mapMessage(row))
	}
	return dtos, nil
}

// MarkRead flags every message not sent by the user as read.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, userID string) error {
	ctx = ensureContext(ctx)

	conversation, err := s.loadForParty(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversation.ID, strings.TrimSpace(userID), false).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("conversation service: mark read: %w", result.Error)
	}

	if s.hub != nil && result.RowsAffected > 0 {
		change := realtime.Change(realtime.StreamMessages, realtime.EventUpdate,
			map[string]string{"conversation_id": conversation.ID})
		s.hub.BroadcastToUsers(realtime.StreamMessages,
			[]string{conversation.HospitalID, conversation.BloodBankID}, change)
	}
	return nil
}

func (s *ConversationService) loadForParty(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conversationID = strings.TrimSpace(conversationID)
	userID = strings.TrimSpace(userID)
	if conversationID == "" || userID == "" {
		return nil, errors.New("conversation service: conversation id and user id are required")
	}

	var conversation models.Conversation
	err := s.db.WithContext(ctx).Take(&conversation, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation service: load conversation: %w", err)
	}
	if !conversation.Involves(userID) {
		return nil, apperrors.ErrForbidden
	}
	return &conversation, nil
}

func mapConversation(c models.Conversation) ConversationDTO {
	return ConversationDTO{
		ID:              c.ID,
		HospitalID:      c.HospitalID,
		BloodBankID:     c.BloodBankID,
		EmergencyPostID: c.EmergencyPostID,
		UpdatedAt:       c.UpdatedAt,
		CreatedAt:       c.CreatedAt,
	}
}

func mapMessage(m models.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}
