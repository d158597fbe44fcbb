package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/realtime"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/metrics"
)

// ParticipationDTO is the API-friendly volunteer response payload.
type ParticipationDTO struct {
	ID            string    `json:"id"`
	EmergencyID   string    `json:"emergency_id"`
	VolunteerID   string    `json:"volunteer_id"`
	VolunteerName string    `json:"volunteer_name"`
	Age           *int      `json:"age,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Weight        *float64  `json:"weight,omitempty"`
	City          string    `json:"city,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Message       string    `json:"message,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordParticipationInput captures a volunteer's response to a post. The
// demographic fields are snapshotted so later profile edits do not rewrite
// what the poster saw.
type RecordParticipationInput struct {
	EmergencyID   string
	VolunteerID   string
	VolunteerName string
	Age           *int
	Gender        string
	Weight        *float64
	City          string
	ContactNumber string
	Message       string
	Health        map[string]any
}

// ParticipationService records and manages volunteer responses.
type ParticipationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewParticipationService constructs a ParticipationService.
func NewParticipationService(db *gorm.DB, hub *realtime.Hub) (*ParticipationService, error) {
	if db == nil {
		return nil, errors.New("participation service: db is required")
	}
	return &ParticipationService{db: db, hub: hub}, nil
}

// Record stores a volunteer response against an active post.
func (s *ParticipationService) Record(ctx context.Context, input RecordParticipationInput) (*ParticipationDTO, error) {
	ctx = ensureContext(ctx)

	input.EmergencyID = strings.TrimSpace(input.EmergencyID)
	input.VolunteerID = strings.TrimSpace(input.VolunteerID)
	if input.EmergencyID == "" || input.VolunteerID == "" {
		return nil, errors.New("participation service: emergency id and volunteer id are required")
	}
	input.VolunteerName = strings.TrimSpace(input.VolunteerName)
	if input.VolunteerName == "" {
		return nil, apperrors.NewBadRequest("volunteer name is required")
	}
	if strings.TrimSpace(input.ContactNumber) == "" {
		return nil, apperrors.NewBadRequest("contact number is required")
	}

	var post models.EmergencyPost
	err := s.db.WithContext(ctx).Take(&post, "id = ?", input.EmergencyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("participation service: load post: %w", err)
	}
	if post.Status != models.PostStatusActive {
		return nil, apperrors.NewBadRequest("emergency post is no longer active")
	}

	participation := models.Participation{
		EmergencyID:   input.EmergencyID,
		VolunteerID:   input.VolunteerID,
		Status:        models.ParticipationPending,
		VolunteerName: input.VolunteerName,
		Age:           input.Age,
		Gender:        strings.TrimSpace(input.Gender),
		Weight:        input.Weight,
		City:          strings.TrimSpace(input.City),
		ContactNumber: strings.TrimSpace(input.ContactNumber),
		Message:       strings.TrimSpace(input.Message),
	}

	if input.Health != nil {
		data, err := json.Marshal(input.Health)
		if err != nil {
			return nil, fmt.Errorf("participation service: marshal health snapshot: %w", err)
		}
		participation.HealthSnapshot = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&participation).Error; err != nil {
		return nil, fmt.Errorf("participation service: create participation: %w", err)
	}

	metrics.Participations.Inc()

	dto := mapParticipation(participation)
	if s.hub != nil {
		change := realtime.Change(realtime.StreamParticipations, realtime.EventInsert, dto)
		s.hub.BroadcastStream(realtime.StreamParticipations, change)
		// The poster gets a targeted copy so "new volunteer response" alerts
		// work without subscribing to the whole stream.
		s.hub.BroadcastToUser(realtime.StreamParticipations, post.PostedBy, change)
	}
	return &dto, nil
}

// ListForPost returns responses to a post, restricted to the post's owner.
func (s *ParticipationService) ListForPost(ctx context.Context, postID, posterID string) ([]ParticipationDTO, error) {
	ctx = ensureContext(ctx)

	postID = strings.TrimSpace(postID)
	posterID = strings.TrimSpace(posterID)
	if postID == "" || posterID == "" {
		return nil, errors.New("participation service: post id and poster id are required")
	}

	var post models.EmergencyPost
	err := s.db.WithContext(ctx).Take(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("participation service: load post: %w", err)
	}
	if post.PostedBy != posterID {
		return nil, apperrors.ErrForbidden
	}

	var rows []models.Participation
	if err := s.db.WithContext(ctx).
		Where("emergency_id = ?", postID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("participation service: list participations: %w", err)
	}

	return mapParticipations(rows), nil
}

// ListForVolunteer returns the volunteer's own responses, newest first.
func (s *ParticipationService) ListForVolunteer(ctx context.Context, volunteerID string) ([]ParticipationDTO, error) {
	ctx = ensureContext(ctx)

	volunteerID = strings.TrimSpace(volunteerID)
	if volunteerID == "" {
		return nil, errors.New("participation service: volunteer id is required")
	}

	var rows []models.Participation
	if err := s.db.WithContext(ctx).
		Where("volunteer_id = ?", volunteerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("participation service: list participations: %w", err)
	}

	return mapParticipations(rows), nil
}

// UpdateStatus lets a post owner accept or decline a response.
func (s *ParticipationService) UpdateStatus(ctx context.Context, participationID, posterID, status string) error {
	ctx = ensureContext(ctx)

	switch status {
	case models.ParticipationAccepted, models.ParticipationDeclined, models.ParticipationPending:
	default:
		return apperrors.NewBadRequest(fmt.Sprintf("unknown participation status %q", status))
	}

	var participation models.Participation
	err := s.db.WithContext(ctx).Take(&participation, "id = ?", participationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("participation service: load participation: %w", err)
	}

	var post models.EmergencyPost
	if err := s.db.WithContext(ctx).Take(&post, "id = ?", participation.EmergencyID).Error; err != nil {
		return fmt.Errorf("participation service: load post: %w", err)
	}
	if post.PostedBy != strings.TrimSpace(posterID) {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).
		Model(&participation).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("participation service: update status: %w", err)
	}

	if s.hub != nil {
		change := realtime.Change(realtime.StreamParticipations, realtime.EventUpdate,
			map[string]string{"id": participation.ID, "status": status})
		s.hub.BroadcastStream(realtime.StreamParticipations, change)
		s.hub.BroadcastToUser(realtime.StreamParticipations, participation.VolunteerID, change)
	}
	return nil
}

func mapParticipations(rows []models.Participation) []ParticipationDTO {
	dtos := make([]ParticipationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, mapParticipation(row))
	}
	return dtos
}

func mapParticipation(p models.Participation) ParticipationDTO {
	return ParticipationDTO{
		ID:            p.ID,
		EmergencyID:   p.EmergencyID,
		VolunteerID:   p.VolunteerID,
		VolunteerName: p.VolunteerName,
		Age:           p.Age,
		Gender:        p.Gender,
		Weight:        p.Weight,
		City:          p.City,
		ContactNumber: p.ContactNumber,
		Message:       p.Message,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
	}
}
