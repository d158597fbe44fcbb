package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// InventoryHandler manages a blood bank's stock rows.
type InventoryHandler struct {
	inventory *services.InventoryService
}

func NewInventoryHandler(inventory *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type createInventoryRequest struct {
	City       string `json:"city" validate:"required"`
	BloodGroup string `json:"blood_group" validate:"required"`
	Quantity   int    `json:"quantity" validate:"min=0"`
}

type updateInventoryRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// GET /api/inventory
func (h *InventoryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	items, err := h.inventory.ListForBank(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// POST /api/inventory
func (h *InventoryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createInventoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.inventory.Create(requestContext(c), services.CreateInventoryInput{
		BloodBankID: userID,
		City:        req.City,
		BloodGroup:  req.BloodGroup,
		Quantity:    req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// PUT /api/inventory/:id
func (h *InventoryHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateInventoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.inventory.UpdateQuantity(requestContext(c), services.UpdateInventoryInput{
		ItemID:      c.Param("id"),
		BloodBankID: userID,
		Quantity:    req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// DELETE /api/inventory/:id
func (h *InventoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.inventory.Delete(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
