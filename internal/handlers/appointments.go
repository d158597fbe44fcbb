package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// AppointmentHandler schedules donation visits between volunteers and hospitals.
type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

type bookAppointmentRequest struct {
	HospitalID      string    `json:"hospital_id" validate:"required"`
	EmergencyPostID *string   `json:"emergency_post_id"`
	AppointmentDate time.Time `json:"appointment_date" validate:"required"`
	Notes           string    `json:"notes"`
}

type updateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// GET /api/appointments/hospitals
func (h *AppointmentHandler) Hospitals(c *gin.Context) {
	hospitals, err := h.appointments.Hospitals(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, hospitals)
}

// POST /api/appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req bookAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	appointment, err := h.appointments.Book(requestContext(c), services.BookAppointmentInput{
		VolunteerID:     userID,
		HospitalID:      req.HospitalID,
		EmergencyPostID: req.EmergencyPostID,
		AppointmentDate: req.AppointmentDate,
		Notes:           req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, appointment)
}

// GET /api/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var (
		appointments []services.AppointmentDTO
		err          error
	)
	if currentRole(c) == models.RoleHospital {
		appointments, err = h.appointments.ListForHospital(requestContext(c), userID)
	} else {
		appointments, err = h.appointments.ListForVolunteer(requestContext(c), userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, appointments)
}

// PATCH /api/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateAppointmentStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.appointments.UpdateStatus(requestContext(c), c.Param("id"), userID, req.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
