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

// AppointmentDTO is the API-friendly appointment payload.
type AppointmentDTO struct {
	ID              string    `json:"id"`
	VolunteerID     string    `json:"volunteer_id"`
	VolunteerName   string    `json:"volunteer_name,omitempty"`
	HospitalID      string    `json:"hospital_id"`
	HospitalName    string    `json:"hospital_name,omitempty"`
	EmergencyPostID *string   `json:"emergency_post_id,omitempty"`
	AppointmentDate time.Time `json:"appointment_date"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// HospitalOption is a bookable hospital shown to volunteers.
type HospitalOption struct {
	ID               string `json:"id"`
	OrganizationName string `json:"organization_name"`
	City             string `json:"city,omitempty"`
	Phone            string `json:"phone,omitempty"`
}

// BookAppointmentInput schedules a donation visit.
type BookAppointmentInput struct {
	VolunteerID     string
	HospitalID      string
	EmergencyPostID *string
	AppointmentDate time.Time
	Notes           string
}

// AppointmentService schedules and manages donation appointments.
type AppointmentService struct {
	db    *gorm.DB
	hub   *realtime.Hub
	clock func() time.Time
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(db *gorm.DB, hub *realtime.Hub) (*AppointmentService, error) {
	if db == nil {
		return nil, errors.New("appointment service: db is required")
	}
	return &AppointmentService{db: db, hub: hub, clock: time.Now}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *AppointmentService) WithClock(clock func() time.Time) *AppointmentService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Hospitals lists every hospital profile a volunteer can book with.
func (s *AppointmentService) Hospitals(ctx context.Context) ([]HospitalOption, error) {
	ctx = ensureContext(ctx)

	var rows []models.Profile
	if err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleHospital).
		Order("organization_name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("appointment service: list hospitals: %w", err)
	}

	options := make([]HospitalOption, 0, len(rows))
	for _, row := range rows {
		options = append(options, HospitalOption{
			ID:               row.ID,
			OrganizationName: row.DisplayName(),
			City:             row.City,
			Phone:            row.Phone,
		})
	}
	return options, nil
}

// Book creates a pending appointment. The date must not be in the past and
// the target account must actually be a hospital.
func (s *AppointmentService) Book(ctx context.Context, input BookAppointmentInput) (*AppointmentDTO, error) {
	ctx = ensureContext(ctx)

	input.VolunteerID = strings.TrimSpace(input.VolunteerID)
	input.HospitalID = strings.TrimSpace(input.HospitalID)
	if input.VolunteerID == "" || input.HospitalID == "" {
		return nil, errors.New("appointment service: volunteer id and hospital id are required")
	}
	if input.AppointmentDate.IsZero() {
		return nil, apperrors.NewBadRequest("appointment date is required")
	}
	if input.AppointmentDate.Before(s.clock()) {
		return nil, apperrors.NewBadRequest("appointment date cannot be in the past")
	}

	var hospital models.Profile
	err := s.db.WithContext(ctx).Take(&hospital, "id = ?", input.HospitalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointment service: load hospital: %w", err)
	}
	if hospital.Role != models.RoleHospital {
		return nil, apperrors.NewBadRequest("appointments can only be booked with hospitals")
	}

	if input.EmergencyPostID != nil {
		trimmed := strings.TrimSpace(*input.EmergencyPostID)
		if trimmed == "" {
			input.EmergencyPostID = nil
		} else {
			var count int64
			if err := s.db.WithContext(ctx).
				Model(&models.EmergencyPost{}).
				Where("id = ?", trimmed).
				Count(&count).Error; err != nil {
				return nil, fmt.Errorf("appointment service: check post: %w", err)
			}
			if count == 0 {
				return nil, apperrors.ErrNotFound
			}
			input.EmergencyPostID = &trimmed
		}
	}

	appointment := models.Appointment{
		VolunteerID:     input.VolunteerID,
		HospitalID:      input.HospitalID,
		EmergencyPostID: input.EmergencyPostID,
		AppointmentDate: input.AppointmentDate,
		Notes:           strings.TrimSpace(input.Notes),
		Status:          models.AppointmentPending,
	}

	if err := s.db.WithContext(ctx).Create(&appointment).Error; err != nil {
		return nil, fmt.Errorf("appointment service: create appointment: %w", err)
	}

	dto := s.mapWithNames(ctx, appointment)
	if s.hub != nil {
		change := realtime.Change(realtime.StreamAppointments, realtime.EventInsert, dto)
		s.hub.BroadcastToUsers(realtime.StreamAppointments,
			[]string{appointment.VolunteerID, appointment.HospitalID}, change)
	}
	return &dto, nil
}

// ListForVolunteer returns the volunteer's appointments, soonest first.
func (s *AppointmentService) ListForVolunteer(ctx context.Context, volunteerID string) ([]AppointmentDTO, error) {
	return s.list(ctx, "volunteer_id", volunteerID)
}

// ListForHospital returns the hospital's appointments, soonest first.
func (s *AppointmentService) ListForHospital(ctx context.Context, hospitalID string) ([]AppointmentDTO, error) {
	return s.list(ctx, "hospital_id", hospitalID)
}

func (s *AppointmentService) list(ctx context.Context, column, id string) ([]AppointmentDTO, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("appointment service: id is required")
	}

	var rows []models.Appointment
	if err := s.db.WithContext(ctx).
		Where(column+" = ?", id).
		Order("appointment_date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("appointment service: list appointments: %w", err)
	}

	dtos := make([]AppointmentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, s.mapWithNames(ctx, row))
	}
	return dtos, nil
}

// UpdateStatus lets the hospital progress an appointment.
func (s *AppointmentService) UpdateStatus(ctx context.Context, appointmentID, hospitalID, status string) error {
	ctx = ensureContext(ctx)

	if !models.ValidAppointmentStatus(status) {
		return apperrors.NewBadRequest(fmt.Sprintf("unknown appointment status %q", status))
	}

	result := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND hospital_id = ?", appointmentID, hospitalID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("appointment service: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	if s.hub != nil {
		var appointment models.Appointment
		if err := s.db.WithContext(ctx).Take(&appointment, "id = ?", appointmentID).Error; err == nil {
			change := realtime.Change(realtime.StreamAppointments, realtime.EventUpdate,
				map[string]string{"id": appointmentID, "status": status})
			s.hub.BroadcastToUsers(realtime.StreamAppointments,
				[]string{appointment.VolunteerID, appointment.HospitalID}, change)
		}
	}
	return nil
}

func (s *AppointmentService) mapWithNames(ctx context.Context, a models.Appointment) AppointmentDTO {
	dto := AppointmentDTO{
		ID:              a.ID,
		VolunteerID:     a.VolunteerID,
		HospitalID:      a.HospitalID,
		EmergencyPostID: a.EmergencyPostID,
		AppointmentDate: a.AppointmentDate,
		Notes:           a.Notes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
	}

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).
		Where("id IN ?", []string{a.VolunteerID, a.HospitalID}).
		Find(&profiles).Error; err == nil {
		for _, profile := range profiles {
			switch profile.ID {
			case a.VolunteerID:
				dto.VolunteerName = profile.DisplayName()
			case a.HospitalID:
				dto.HospitalName = profile.DisplayName()
			}
		}
	}
	return dto
}
