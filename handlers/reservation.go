package handlers

import (
	"log"
	"net/http"

	"parkingreserve/services"
	"parkingreserve/utils"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservations *services.ReservationService
}

func NewReservationHandler(reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// ReserveInput 預約車位
type ReserveInput struct {
	SlotID int `json:"slot_id" form:"slot_id" binding:"required,gt=0"`
}

// VerifyInput 掃描憑證，payload 或 image 擇一
type VerifyInput struct {
	Payload string `json:"payload" binding:"required_without=Image"`
	Image   string `json:"image" binding:"required_without=Payload"`
}

// CreateReservation 預約車位
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var input ReserveInput
	if err := c.ShouldBind(&input); err != nil {
		log.Printf("Invalid input data for reservation: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的車位", "slot_id is required", "ERR_INVALID_INPUT")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reservation, err := h.reservations.Reserve(c.Request.Context(), userID, input.SlotID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "預約成功", reservation.ToResponse())
}

// GetReservation 查看預約與 QR Code
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := paramID(c, "id", "無效的預約ID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	view, err := h.reservations.View(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", gin.H{
		"reservation": view.Reservation.ToResponse(),
		"qr_image":    view.QRImage,
		"summary":     view.Summary,
	})
}

// CheckoutReservation 結帳離場並釋放車位
func (h *ReservationHandler) CheckoutReservation(c *gin.Context) {
	id, ok := paramID(c, "id", "無效的預約ID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	slotNumber, err := h.reservations.Checkout(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "已完成離場，車位 "+slotNumber+" 已釋放", gin.H{
		"slot_number": slotNumber,
	})
}

// ListMyReservations 查詢自己的預約
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summaries, err := h.reservations.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", summaries)
}

// VerifyReservation 驗證掃描到的預約憑證
func (h *ReservationHandler) VerifyReservation(c *gin.Context) {
	var input VerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid verify input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "payload or image is required", "ERR_INVALID_INPUT")
		return
	}

	var (
		token *utils.TokenPayload
		err   error
	)
	if input.Payload != "" {
		token, err = h.reservations.Verify(c.Request.Context(), input.Payload)
	} else {
		token, err = h.reservations.VerifyImage(c.Request.Context(), input.Image)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "憑證有效", token)
}
