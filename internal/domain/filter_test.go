package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockapp/internal/dates"
)

func tx(id string, ts time.Time) Transaction {
	return Transaction{
		ID:        id,
		ItemID:    "item-1",
		ItemName:  "Beras",
		Amount:    2,
		Unit:      UnitKilogram,
		Type:      TransactionIn,
		Timestamp: ts,
	}
}

func TestFilterTransactionsToday(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, time.March, 15, 14, 30, 0, 0, loc)

	transactions := []Transaction{
		tx("newest", time.Date(2024, time.March, 15, 12, 0, 0, 0, loc)),
		tx("midnight boundary", time.Date(2024, time.March, 15, 0, 0, 0, 0, loc)),
		tx("yesterday", time.Date(2024, time.March, 14, 23, 59, 0, 0, loc)),
	}

	got := FilterTransactions(transactions, dates.FilterToday, now, "", "")
	require.Len(t, got, 2)
	// Input order preserved: callers hand in timestamp-descending data.
	require.Equal(t, "newest", got[0].ID)
	require.Equal(t, "midnight boundary", got[1].ID)
}

func TestFilterTransactionsIncompleteCustomMatchesNothing(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, time.March, 15, 14, 30, 0, 0, loc)
	transactions := []Transaction{
		tx("a", now),
		tx("b", now.Add(-time.Hour)),
	}

	got := FilterTransactions(transactions, dates.FilterCustom, now, "", "2024-03-01")
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestFilterTransactionsCustomRangeInclusive(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, loc)
	transactions := []Transaction{
		tx("after", time.Date(2024, time.March, 11, 0, 0, 0, 0, loc)),
		tx("last millisecond", time.Date(2024, time.March, 10, 23, 59, 59, int(999*time.Millisecond), loc)),
		tx("first instant", time.Date(2024, time.March, 1, 0, 0, 0, 0, loc)),
		tx("before", time.Date(2024, time.February, 29, 23, 59, 59, 0, loc)),
	}

	got := FilterTransactions(transactions, dates.FilterCustom, now, "2024-03-01", "2024-03-10")
	require.Len(t, got, 2)
	require.Equal(t, "last millisecond", got[0].ID)
	require.Equal(t, "first instant", got[1].ID)
}

func TestSnapshotItemByID(t *testing.T) {
	snap := Snapshot{Items: []StockItem{{ID: "1", Name: "Beras"}, {ID: "2", Name: "Kopi"}}}
	item, ok := snap.ItemByID("2")
	require.True(t, ok)
	require.Equal(t, "Kopi", item.Name)
	_, ok = snap.ItemByID("404")
	require.False(t, ok)
}
