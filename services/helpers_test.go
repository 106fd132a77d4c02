package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"parkingreserve/database"
	"parkingreserve/models"
	"parkingreserve/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testTxTimeout = 10 * time.Second

func TestMain(m *testing.M) {
	utils.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func testDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// openTestDB 對同一個檔案開一個獨立的連線池
func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: testDSN(path), Release: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestDBFile(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parking.db")
	db := openTestDB(t, path)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedSlots(db, database.DefaultSlotCount))
	return db, path
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, _ := newTestDBFile(t)
	return db
}

func mustRegister(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user, err := NewUserService(db, testTxTimeout).Register(context.Background(), email, "password123")
	require.NoError(t, err)
	return user
}

func slotByNumber(t *testing.T, db *gorm.DB, number string) models.ParkingSlot {
	t.Helper()
	var slot models.ParkingSlot
	require.NoError(t, db.Where("slot_number = ?", number).First(&slot).Error)
	return slot
}

// requireSlotInvariant 每個車位最多一筆預約，且 is_available 與有無預約一致
func requireSlotInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var slots []models.ParkingSlot
	require.NoError(t, db.Find(&slots).Error)
	for _, slot := range slots {
		var holders int64
		require.NoError(t, db.Model(&models.Reservation{}).Where("slot_id = ?", slot.ID).Count(&holders).Error)
		require.LessOrEqual(t, holders, int64(1), "slot %s has %d reservations", slot.SlotNumber, holders)
		require.Equal(t, holders == 0, slot.IsAvailable, "slot %s availability drifted", slot.SlotNumber)
	}
}
