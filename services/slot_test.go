package services

import (
	"context"
	"testing"

	"parkingreserve/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotService_List(t *testing.T) {
	db := newTestDB(t)
	slots := NewSlotService(db, testTxTimeout)
	reservations := NewReservationService(db, testTxTimeout)
	user := mustRegister(t, db, "a@b.com")

	all, err := slots.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, database.DefaultSlotCount)
	for i, slot := range all {
		assert.Equal(t, database.SlotNumber(i+1), slot.SlotNumber)
	}

	_, err = reservations.Reserve(context.Background(), user.ID, slotByNumber(t, db, "A-03").ID)
	require.NoError(t, err)

	all, err = slots.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, database.DefaultSlotCount)
	assert.False(t, all[2].IsAvailable)

	available, err := slots.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Len(t, available, database.DefaultSlotCount-1)
	for _, slot := range available {
		assert.NotEqual(t, "A-03", slot.SlotNumber)
	}

	summary, err := slots.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(database.DefaultSlotCount), summary.Total)
	assert.Equal(t, int64(database.DefaultSlotCount-1), summary.Available)
	assert.Equal(t, int64(1), summary.Occupied)
}

func TestSlotService_GetByID(t *testing.T) {
	db := newTestDB(t)
	slots := NewSlotService(db, testTxTimeout)

	want := slotByNumber(t, db, "A-10")
	got, err := slots.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, "A-10", got.SlotNumber)

	_, err = slots.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}
