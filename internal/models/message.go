package models

// Message belongs to one conversation. The read flag defaults to unread and is
// flipped only when the non-sender opens the thread.
type Message struct {
	BaseModel

	ConversationID string        `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"foreignKey:ConversationID" json:"-"`

	SenderID string `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Read     bool   `gorm:"default:false;index" json:"read"`
}
