package models

import "time"

// Appointment states.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// ValidAppointmentStatus reports whether the supplied state is recognised.
func ValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment links a volunteer to a hospital for a donation visit, optionally
// referencing the emergency post the volunteer responded to. Its lifecycle is
// independent of the participation record; a participation without an
// appointment is a meaningful state.
type Appointment struct {
	BaseModel

	VolunteerID string   `gorm:"type:uuid;not null;index" json:"volunteer_id"`
	Volunteer   *Profile `gorm:"foreignKey:VolunteerID" json:"-"`
	HospitalID  string   `gorm:"type:uuid;not null;index" json:"hospital_id"`
	Hospital    *Profile `gorm:"foreignKey:HospitalID" json:"-"`

	EmergencyPostID *string `gorm:"type:uuid;index" json:"emergency_post_id"`

	AppointmentDate time.Time `gorm:"not null;index" json:"appointment_date"`
	Notes           string    `gorm:"type:text" json:"notes"`
	Status          string    `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
}
