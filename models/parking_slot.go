package models

import "time"

// ParkingSlot 固定車位，IsAvailable 與「是否存在預約」必須一致
type ParkingSlot struct {
	ID          int       `json:"slot_id" gorm:"primaryKey;autoIncrement"`
	SlotNumber  string    `json:"slot_number" gorm:"type:varchar(10);uniqueIndex;not null"` // 例如 A-01
	IsAvailable bool      `json:"is_available" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ParkingSlot) TableName() string {
	return "parking_slots"
}

type ParkingSlotResponse struct {
	SlotID      int    `json:"slot_id"`
	SlotNumber  string `json:"slot_number"`
	IsAvailable bool   `json:"is_available"`
}

func (p *ParkingSlot) ToResponse() ParkingSlotResponse {
	return ParkingSlotResponse{
		SlotID:      p.ID,
		SlotNumber:  p.SlotNumber,
		IsAvailable: p.IsAvailable,
	}
}

// SlotSummary 車位總覽
type SlotSummary struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Occupied  int64 `json:"occupied"`
}
