package services

import (
	"context"
	"errors"
	"log"
	"time"

	"parkingreserve/models"

	"gorm.io/gorm"
)

// SlotService 車位查詢，只讀不寫
type SlotService struct {
	db        *gorm.DB
	txTimeout time.Duration
}

func NewSlotService(db *gorm.DB, txTimeout time.Duration) *SlotService {
	return &SlotService{db: db, txTimeout: txTimeout}
}

// ListAll 依車位編號排序列出所有車位
func (s *SlotService) ListAll(ctx context.Context) ([]models.ParkingSlot, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var slots []models.ParkingSlot
	if err := s.db.WithContext(ctx).Order("slot_number ASC").Find(&slots).Error; err != nil {
		log.Printf("Failed to list parking slots: %v", err)
		return nil, persistenceError("list parking slots", err)
	}
	return slots, nil
}

// ListAvailable 列出可預約車位
func (s *SlotService) ListAvailable(ctx context.Context) ([]models.ParkingSlot, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var slots []models.ParkingSlot
	if err := s.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("slot_number ASC").
		Find(&slots).Error; err != nil {
		log.Printf("Failed to list available parking slots: %v", err)
		return nil, persistenceError("list available parking slots", err)
	}
	return slots, nil
}

// GetByID 查詢特定車位
func (s *SlotService) GetByID(ctx context.Context, id int) (*models.ParkingSlot, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var slot models.ParkingSlot
	if err := s.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		log.Printf("Failed to get parking slot %d: %v", id, err)
		return nil, persistenceError("get parking slot", err)
	}
	return &slot, nil
}

// Summary 統計總數、可用與已占用車位
func (s *SlotService) Summary(ctx context.Context) (models.SlotSummary, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var summary models.SlotSummary
	err := s.db.WithContext(ctx).Model(&models.ParkingSlot{}).
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN is_available THEN 1 ELSE 0 END), 0) AS available").
		Scan(&summary).Error
	if err != nil {
		log.Printf("Failed to summarize parking slots: %v", err)
		return models.SlotSummary{}, persistenceError("summarize parking slots", err)
	}
	summary.Occupied = summary.Total - summary.Available
	return summary, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
