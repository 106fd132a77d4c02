package services

import (
	"context"
	"log"
	"time"

	"parkingreserve/metrics"
	"parkingreserve/models"

	"gorm.io/gorm"
)

// SlotHolders 車位與目前持有的預約數
type SlotHolders struct {
	SlotID      int
	SlotNumber  string
	IsAvailable bool
	Holders     int64
}

// Drifted 旗標與預約不一致
func (h SlotHolders) Drifted() bool {
	return h.IsAvailable != (h.Holders == 0)
}

// AuditReport 一次稽核的結果
type AuditReport struct {
	Total      int
	Available  int
	Drifted    []SlotHolders
	Violations []SlotHolders // 超過一筆預約
	Repaired   int
}

// AuditService 定期比對 is_available 與預約紀錄
type AuditService struct {
	db        *gorm.DB
	txTimeout time.Duration
}

func NewAuditService(db *gorm.DB, txTimeout time.Duration) *AuditService {
	return &AuditService{db: db, txTimeout: txTimeout}
}

// Run 以單一查詢取得快照，repair 時把旗標改回與預約一致
func (s *AuditService) Run(ctx context.Context, repair bool) (*AuditReport, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var rows []SlotHolders
	if err := s.db.WithContext(ctx).
		Table("parking_slots AS s").
		Select("s.id AS slot_id, s.slot_number AS slot_number, s.is_available AS is_available, COUNT(r.id) AS holders").
		Joins("LEFT JOIN reservations r ON r.slot_id = s.id").
		Group("s.id, s.slot_number, s.is_available").
		Order("s.slot_number ASC").
		Scan(&rows).Error; err != nil {
		log.Printf("Failed to audit parking slots: %v", err)
		return nil, persistenceError("audit parking slots", err)
	}

	report := &AuditReport{Total: len(rows)}
	for _, row := range rows {
		if row.IsAvailable {
			report.Available++
		}
		if row.Holders > 1 {
			log.Printf("Invariant violation: slot %s has %d reservations", row.SlotNumber, row.Holders)
			report.Violations = append(report.Violations, row)
		}
		if !row.Drifted() {
			continue
		}

		log.Printf("Slot %s drifted: is_available=%t but %d reservations", row.SlotNumber, row.IsAvailable, row.Holders)
		report.Drifted = append(report.Drifted, row)
		metrics.SlotDrift.Inc()

		if !repair {
			continue
		}
		// 單一敘述內重算，不會覆蓋同時進行中的預約或結帳
		result := s.db.WithContext(ctx).Model(&models.ParkingSlot{}).
			Where("id = ?", row.SlotID).
			Update("is_available", gorm.Expr("NOT EXISTS (SELECT 1 FROM reservations WHERE reservations.slot_id = ?)", row.SlotID))
		if result.Error != nil {
			log.Printf("Failed to repair slot %s: %v", row.SlotNumber, result.Error)
			continue
		}
		report.Repaired++
		log.Printf("Repaired availability flag for slot %s", row.SlotNumber)
	}

	metrics.SlotsAvailable.Set(float64(report.Available))
	log.Printf("Slot audit completed: total=%d available=%d drifted=%d violations=%d repaired=%d",
		report.Total, report.Available, len(report.Drifted), len(report.Violations), report.Repaired)
	return report, nil
}
