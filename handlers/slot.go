package handlers

import (
	"net/http"

	"parkingreserve/models"
	"parkingreserve/services"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	slots *services.SlotService
}

func NewSlotHandler(slots *services.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// ListSlots 查詢所有車位
func (h *SlotHandler) ListSlots(c *gin.Context) {
	slots, err := h.slots.ListAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.respondSlots(c, slots, "all")
}

// ListAvailableSlots 查詢可預約車位
func (h *SlotHandler) ListAvailableSlots(c *gin.Context) {
	slots, err := h.slots.ListAvailable(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.respondSlots(c, slots, "available")
}

// GetSlot 查詢特定車位
func (h *SlotHandler) GetSlot(c *gin.Context) {
	id, ok := paramID(c, "id", "無效的車位ID")
	if !ok {
		return
	}

	slot, err := h.slots.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", slot.ToResponse())
}

func (h *SlotHandler) respondSlots(c *gin.Context, slots []models.ParkingSlot, filter string) {
	summary, err := h.slots.Summary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]models.ParkingSlotResponse, len(slots))
	for i, slot := range slots {
		responses[i] = slot.ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", gin.H{
		"filter":  filter,
		"summary": summary,
		"slots":   responses,
	})
}
