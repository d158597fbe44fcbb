package models

import "gorm.io/datatypes"

// Participation states.
const (
	ParticipationPending  = "pending"
	ParticipationAccepted = "accepted"
	ParticipationDeclined = "declined"
)

// Participation records a volunteer's response to one emergency post together
// with a snapshot of their demographics at response time. The snapshot is kept
// on the row so the poster still sees what the volunteer submitted even if the
// profile changes later.
type Participation struct {
	BaseModel

	EmergencyID string         `gorm:"type:uuid;not null;index" json:"emergency_id"`
	Emergency   *EmergencyPost `gorm:"foreignKey:EmergencyID" json:"-"`
	VolunteerID string         `gorm:"type:uuid;not null;index" json:"volunteer_id"`
	Volunteer   *Profile       `gorm:"foreignKey:VolunteerID" json:"-"`

	Status string `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`

	VolunteerName string   `gorm:"type:varchar(255)" json:"volunteer_name"`
	Age           *int     `json:"age"`
	Gender        string   `gorm:"type:varchar(16)" json:"gender"`
	Weight        *float64 `json:"weight"`
	City          string   `gorm:"type:varchar(128)" json:"city"`
	ContactNumber string   `gorm:"type:varchar(32)" json:"contact_number"`
	Message       string   `gorm:"type:text" json:"message"`

	// Optional health attributes captured alongside the response.
	HealthSnapshot datatypes.JSON `json:"health_snapshot,omitempty"`
}
