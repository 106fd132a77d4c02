package database

import (
	"fmt"
	"log"

	"parkingreserve/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSlotCount 啟動時建立的車位數量
const DefaultSlotCount = 10

// Migrate 執行資料表遷移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.ParkingSlot{},
		&models.Reservation{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Database migration completed")
	return nil
}

// SlotNumber 車位編號 A-01 ~ A-NN
func SlotNumber(i int) string {
	return fmt.Sprintf("A-%02d", i)
}

// SeedSlots 車位表為空時建立預設車位，多個實例同時啟動也只會寫入一次
func SeedSlots(db *gorm.DB, count int) error {
	var existing int64
	if err := db.Model(&models.ParkingSlot{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to count parking slots: %w", err)
	}
	if existing > 0 {
		log.Printf("Parking slots already seeded: %d", existing)
		return nil
	}

	slots := make([]models.ParkingSlot, 0, count)
	for i := 1; i <= count; i++ {
		slots = append(slots, models.ParkingSlot{
			SlotNumber:  SlotNumber(i),
			IsAvailable: true,
		})
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&slots).Error; err != nil {
		return fmt.Errorf("failed to seed parking slots: %w", err)
	}
	log.Printf("Seeded %d parking slots", count)
	return nil
}
