package models

// Conversation is a messaging thread between one hospital and one blood bank,
// optionally scoped to one emergency post. The composite unique index makes
// GetOrCreate idempotent even under concurrent callers.
type Conversation struct {
	BaseModel

	HospitalID  string   `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_triple" json:"hospital_id"`
	Hospital    *Profile `gorm:"foreignKey:HospitalID" json:"-"`
	BloodBankID string   `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_triple" json:"blood_bank_id"`
	BloodBank   *Profile `gorm:"foreignKey:BloodBankID" json:"-"`

	EmergencyPostID *string `gorm:"type:uuid;uniqueIndex:idx_conversation_triple" json:"emergency_post_id"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Involves reports whether the supplied profile id is one of the two parties.
func (c *Conversation) Involves(profileID string) bool {
	return c != nil && (c.HospitalID == profileID || c.BloodBankID == profileID)
}

// OtherParty returns the id of the counterpart for the supplied participant.
func (c *Conversation) OtherParty(profileID string) string {
	if c == nil {
		return ""
	}
	if c.HospitalID == profileID {
		return c.BloodBankID
	}
	return c.HospitalID
}
