package database

import (
	"testing"
	"time"

	"steam-buff-tracker/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRows(t *testing.T) {
	now := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	rows := SnapshotRows([]models.PriceRecord{
		{
			Name: "Widget", GoodsID: "G1", Link: "L", Game: "csgo",
			Prices: models.PriceSnapshot{SteamPrice: 70, BuffPrice: 60, BuffUsername: "N", Timestamp: "2025-10-01T08:30:00.000Z", Ratio: 1.0084},
		},
		{Name: "Broken", Prices: models.PriceSnapshot{Timestamp: "yesterday"}},
	}, now)

	require.Len(t, rows, 2)
	require.Equal(t, "Widget", rows[0].Name)
	require.Equal(t, "csgo", rows[0].Game)
	require.Equal(t, 1.0084, rows[0].Ratio)
	require.Equal(t, time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC), rows[0].ObservedAt)
	require.Equal(t, now, rows[1].ObservedAt)
}

func TestInitializeRequiresDSN(t *testing.T) {
	_, err := Initialize("")
	require.Error(t, err)
}
