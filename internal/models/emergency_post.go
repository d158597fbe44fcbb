package models

// Emergency post lifecycle states.
const (
	PostStatusActive  = "active"
	PostStatusClosed  = "closed"
	PostStatusExpired = "expired"
)

// Urgency levels, most to least pressing.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// ValidUrgency reports whether the supplied urgency level is recognised.
func ValidUrgency(level string) bool {
	switch level {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// EmergencyPost is a request for N units of a blood group at a location,
// owned by a hospital or blood bank profile.
type EmergencyPost struct {
	BaseModel

	PostedBy string   `gorm:"type:uuid;not null;index" json:"posted_by"`
	Poster   *Profile `gorm:"foreignKey:PostedBy" json:"poster,omitempty"`

	BloodGroup   string `gorm:"type:varchar(8);not null;index" json:"blood_group"`
	Quantity     int    `gorm:"not null" json:"quantity"`
	Location     string `gorm:"type:varchar(255);not null" json:"location"`
	UrgencyLevel string `gorm:"type:varchar(16);not null" json:"urgency_level"`
	Description  string `gorm:"type:text" json:"description"`
	ContactPhone string `gorm:"type:varchar(32);not null" json:"contact_phone"`
	Status       string `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`

	Participations []Participation `gorm:"foreignKey:EmergencyID" json:"participations,omitempty"`
}
