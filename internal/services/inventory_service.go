package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/realtime"
	"github.com/bloodlink/bloodlink/pkg/blood"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/metrics"
)

// AvailabilityMatch describes a blood bank able to satisfy a request.
type AvailabilityMatch struct {
	BloodBankID   string `json:"blood_bank_id"`
	BloodBankName string `json:"blood_bank_name"`
	City          string `json:"city"`
	BloodGroup    string `json:"blood_group"`
	Quantity      int    `json:"quantity"`
	ContactPhone  string `json:"contact_phone,omitempty"`
}

// InventoryItemDTO is the API-friendly inventory row.
type InventoryItemDTO struct {
	ID          string `json:"id"`
	BloodBankID string `json:"blood_bank_id"`
	City        string `json:"city"`
	BloodGroup  string `json:"blood_group"`
	Quantity    int    `json:"quantity"`
}

// CreateInventoryInput defines attributes for a new inventory row.
type CreateInventoryInput struct {
	BloodBankID string
	City        string
	BloodGroup  string
	Quantity    int
}

// UpdateInventoryInput carries a quantity change for an existing row.
type UpdateInventoryInput struct {
	ItemID      string
	BloodBankID string
	Quantity    int
}

// InventoryService manages blood bank stock and powers availability matching.
type InventoryService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(db *gorm.DB, hub *realtime.Hub) (*InventoryService, error) {
	if db == nil {
		return nil, errors.New("inventory service: db is required")
	}
	return &InventoryService{db: db, hub: hub}, nil
}

// FindAvailability returns every inventory row whose blood group matches exactly and
// whose quantity can cover the requested amount, joined with the owning blood bank's
// public contact details. An empty result is not an error.
func (s *InventoryService) FindAvailability(ctx context.Context, bloodGroup string, minQuantity int) ([]AvailabilityMatch, error) {
	ctx = ensureContext(ctx)

	group, err := blood.Parse(bloodGroup)
	if err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown blood group %q", bloodGroup))
	}
	if minQuantity <= 0 {
		return nil, apperrors.NewBadRequest("requested quantity must be positive")
	}

	var matches []AvailabilityMatch
	err = s.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Select(`blood_inventory.blood_bank_id,
			profiles.organization_name AS blood_bank_name,
			blood_inventory.city,
			blood_inventory.blood_group,
			blood_inventory.quantity,
			profiles.phone AS contact_phone`).
		Joins("JOIN profiles ON profiles.id = blood_inventory.blood_bank_id").
		Where("blood_inventory.blood_group = ? AND blood_inventory.quantity >= ?", group.String(), minQuantity).
		Order("blood_inventory.quantity DESC").
		Scan(&matches).Error
	if err != nil {
		metrics.AvailabilityChecks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("inventory service: find availability: %w", err)
	}

	if len(matches) == 0 {
		metrics.AvailabilityChecks.WithLabelValues("none").Inc()
		return []AvailabilityMatch{}, nil
	}

	metrics.AvailabilityChecks.WithLabelValues("match").Inc()
	return matches, nil
}

// ListForBank returns the bank's stock ordered by city then blood group.
func (s *InventoryService) ListForBank(ctx context.Context, bloodBankID string) ([]InventoryItemDTO, error) {
	ctx = ensureContext(ctx)
	bloodBankID = strings.TrimSpace(bloodBankID)
	if bloodBankID == "" {
		return nil, errors.New("inventory service: blood bank id is required")
	}

	var rows []models.InventoryItem
	if err := s.db.WithContext(ctx).
		Where("blood_bank_id = ?", bloodBankID).
		Order("city ASC, blood_group ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("inventory service: list inventory: %w", err)
	}

	dtos := make([]InventoryItemDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, mapInventoryItem(row))
	}
	return dtos, nil
}

// Create adds a stock row for a (city, blood group) pair the bank does not track yet.
func (s *InventoryService) Create(ctx context.Context, input CreateInventoryInput) (*InventoryItemDTO, error) {
	ctx = ensureContext(ctx)

	bankID := strings.TrimSpace(input.BloodBankID)
	if bankID == "" {
		return nil, errors.New("inventory service: blood bank id is required")
	}
	city := strings.TrimSpace(input.City)
	if city == "" {
		return nil, apperrors.NewBadRequest("city is required")
	}
	group, err := blood.Parse(input.BloodGroup)
	if err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown blood group %q", input.BloodGroup))
	}
	if input.Quantity < 0 {
		return nil, apperrors.NewBadRequest("quantity cannot be negative")
	}

	item := models.InventoryItem{
		BloodBankID: bankID,
		City:        city,
		BloodGroup:  group.String(),
		Quantity:    input.Quantity,
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("inventory for this city and blood group already exists")
		}
		return nil, fmt.Errorf("inventory service: create item: %w", err)
	}

	dto := mapInventoryItem(item)
	s.broadcastInventory(realtime.EventInsert, dto)
	return &dto, nil
}

// UpdateQuantity sets the stock level for a row owned by the bank.
func (s *InventoryService) UpdateQuantity(ctx context.Context, input UpdateInventoryInput) (*InventoryItemDTO, error) {
	ctx = ensureContext(ctx)

	itemID := strings.TrimSpace(input.ItemID)
	bankID := strings.TrimSpace(input.BloodBankID)
	if itemID == "" || bankID == "" {
		return nil, errors.New("inventory service: item id and blood bank id are required")
	}
	if input.Quantity < 0 {
		return nil, apperrors.NewBadRequest("quantity cannot be negative")
	}

	var item models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND blood_bank_id = ?", itemID, bankID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inventory service: load item: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&item).
		Update("quantity", input.Quantity).Error; err != nil {
		return nil, fmt.Errorf("inventory service: update quantity: %w", err)
	}

	item.Quantity = input.Quantity
	dto := mapInventoryItem(item)
	s.broadcastInventory(realtime.EventUpdate, dto)
	return &dto, nil
}

// Delete removes a stock row owned by the bank.
func (s *InventoryService) Delete(ctx context.Context, itemID, bloodBankID string) error {
	ctx = ensureContext(ctx)

	itemID = strings.TrimSpace(itemID)
	bloodBankID = strings.TrimSpace(bloodBankID)
	if itemID == "" || bloodBankID == "" {
		return errors.New("inventory service: item id and blood bank id are required")
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND blood_bank_id = ?", itemID, bloodBankID).
		Delete(&models.InventoryItem{})
	if result.Error != nil {
		return fmt.Errorf("inventory service: delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.broadcastInventory(realtime.EventDelete, map[string]string{"id": itemID})
	return nil
}

func (s *InventoryService) broadcastInventory(event string, data any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastStream(realtime.StreamInventory, realtime.Change(realtime.StreamInventory, event, data))
}

func mapInventoryItem(item models.InventoryItem) InventoryItemDTO {
	return InventoryItemDTO{
		ID:          item.ID,
		BloodBankID: item.BloodBankID,
		City:        item.City,
		BloodGroup:  item.BloodGroup,
		Quantity:    item.Quantity,
	}
}
