package models

import "time"

// Account roles. Hospitals and blood banks post requirements; volunteers respond.
const (
	RoleHospital  = "hospital"
	RoleBloodBank = "blood_bank"
	RoleVolunteer = "volunteer"
)

// ValidRole reports whether the supplied role is one of the three account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleHospital, RoleBloodBank, RoleVolunteer:
		return true
	}
	return false
}

// Profile carries the public identity and (for volunteers) the demographic and
// health attributes of an account. Its id equals the owning user's id.
type Profile struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Role     string `gorm:"type:varchar(32);not null;index" json:"role"`
	FullName string `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone    string `gorm:"type:varchar(32)" json:"phone"`

	// Set for hospital and blood_bank accounts.
	OrganizationName string `gorm:"type:varchar(255)" json:"organization_name"`

	// Volunteer demographics and health attributes.
	Age                  *int     `json:"age"`
	Gender               string   `gorm:"type:varchar(16)" json:"gender"`
	Weight               *float64 `json:"weight"`
	BloodType            string   `gorm:"type:varchar(8)" json:"blood_type"`
	City                 string   `gorm:"type:varchar(128);index" json:"city"`
	Location             string   `gorm:"type:varchar(255)" json:"location"`
	SmokingHabit         string   `gorm:"type:varchar(32)" json:"smoking_habit"`
	DrinkingHabit        string   `gorm:"type:varchar(32)" json:"drinking_habit"`
	JobDescription       string   `gorm:"type:text" json:"job_description"`
	StressLevel          string   `gorm:"type:varchar(32)" json:"stress_level"`
	BloodSugarLevel      string   `gorm:"type:varchar(32)" json:"blood_sugar_level"`
	MajorDiseasesHistory string   `gorm:"type:text" json:"major_diseases_history"`
	PreviousDonation     bool     `gorm:"default:false" json:"previous_donation"`

	ProfilePictureURL string `gorm:"type:text" json:"profile_picture_url"`

	// Gates the volunteer dashboard until the detail form has been saved.
	ProfileCompleted bool `gorm:"default:false" json:"profile_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName prefers the organization name for institutional accounts.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.OrganizationName != "" {
		return p.OrganizationName
	}
	return p.FullName
}
