package services

import (
	"context"
	"testing"

	"parkingreserve/database"
	"parkingreserve/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Clean(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditService(db, testTxTimeout)
	user := mustRegister(t, db, "a@b.com")

	_, err := NewReservationService(db, testTxTimeout).Reserve(context.Background(), user.ID, slotByNumber(t, db, "A-01").ID)
	require.NoError(t, err)

	report, err := audit.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, database.DefaultSlotCount, report.Total)
	assert.Equal(t, database.DefaultSlotCount-1, report.Available)
	assert.Empty(t, report.Drifted)
	assert.Empty(t, report.Violations)
	assert.Zero(t, report.Repaired)
}

func TestAuditService_DetectsAndRepairsDrift(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditService(db, testTxTimeout)
	user := mustRegister(t, db, "a@b.com")

	held := slotByNumber(t, db, "A-01")
	_, err := NewReservationService(db, testTxTimeout).Reserve(context.Background(), user.ID, held.ID)
	require.NoError(t, err)

	// 手動把旗標弄亂：有預約的標為可用，沒預約的標為占用
	require.NoError(t, db.Model(&models.ParkingSlot{}).Where("id = ?", held.ID).Update("is_available", true).Error)
	require.NoError(t, db.Model(&models.ParkingSlot{}).Where("slot_number = ?", "A-02").Update("is_available", false).Error)

	report, err := audit.Run(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, report.Drifted, 2)
	assert.Equal(t, "A-01", report.Drifted[0].SlotNumber)
	assert.Equal(t, int64(1), report.Drifted[0].Holders)
	assert.Equal(t, "A-02", report.Drifted[1].SlotNumber)
	assert.Zero(t, report.Repaired)
	assert.True(t, slotByNumber(t, db, "A-01").IsAvailable)

	report, err = audit.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Repaired)
	requireSlotInvariant(t, db)

	report, err = audit.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, report.Drifted)
}
