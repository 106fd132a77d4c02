package models

import (
	"encoding/json"
	"time"
)

// Reservation 會員與車位的綁定，結帳離場時直接刪除
type Reservation struct {
	ReservationID int         `json:"reservation_id" gorm:"column:id;primaryKey;autoIncrement"`
	UserID        int         `json:"user_id" gorm:"index;not null"`
	SlotID        int         `json:"slot_id" gorm:"uniqueIndex;not null"` // 同一車位同時只能有一筆預約
	ReservedAt    time.Time   `json:"reserved_at" gorm:"index;not null"`
	QRCodeData    string      `json:"-" gorm:"column:qr_code_data;type:text"` // 憑證 JSON，第一次查看時才寫入
	User          User        `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Slot          ParkingSlot `json:"-" gorm:"foreignKey:SlotID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (Reservation) TableName() string {
	return "reservations"
}

type ReservationResponse struct {
	ReservationID int       `json:"reservation_id"`
	UserID        int       `json:"user_id"`
	SlotID        int       `json:"slot_id"`
	SlotNumber    string    `json:"slot_number,omitempty"`
	ReservedAt    time.Time `json:"reserved_at"`
}

func (r *Reservation) ToResponse() ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ReservationID,
		UserID:        r.UserID,
		SlotID:        r.SlotID,
		SlotNumber:    r.Slot.SlotNumber,
		ReservedAt:    r.ReservedAt,
	}
}

// ReservationSummary 預約摘要，需先 Preload User 與 Slot
type ReservationSummary struct {
	ID            int             `json:"id"`
	UserEmail     string          `json:"user_email"`
	SlotNumber    string          `json:"slot_number"`
	ReservedAt    string          `json:"reserved_at"`
	QRCodePayload json.RawMessage `json:"qr_code_payload"`
}

func (r *Reservation) ToSummary() ReservationSummary {
	var payload json.RawMessage
	if r.QRCodeData != "" && json.Valid([]byte(r.QRCodeData)) {
		payload = json.RawMessage(r.QRCodeData)
	}
	return ReservationSummary{
		ID:            r.ReservationID,
		UserEmail:     r.User.Email,
		SlotNumber:    r.Slot.SlotNumber,
		ReservedAt:    r.ReservedAt.UTC().Format("2006-01-02 15:04:05"),
		QRCodePayload: payload,
	}
}
