package models

// InventoryItem tracks the stocked units of one blood group held by a blood
// bank in one city. The composite unique index makes (bank, city, group) the
// natural key; quantity must never go negative.
type InventoryItem struct {
	BaseModel

	BloodBankID string   `gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_bank_city_group" json:"blood_bank_id"`
	BloodBank   *Profile `gorm:"foreignKey:BloodBankID" json:"-"`

	City       string `gorm:"type:varchar(128);not null;uniqueIndex:idx_inventory_bank_city_group" json:"city"`
	BloodGroup string `gorm:"type:varchar(8);not null;uniqueIndex:idx_inventory_bank_city_group" json:"blood_group"`
	Quantity   int    `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
}

// TableName keeps the historical table name used by the coordination schema.
func (InventoryItem) TableName() string { return "blood_inventory" }
