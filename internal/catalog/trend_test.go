package catalog

import (
	"testing"

	"steam-buff-tracker/internal/models"

	"github.com/stretchr/testify/require"
)

func entryWithRatios(ratios ...float64) models.CatalogEntry {
	e := models.CatalogEntry{ID: 7, Name: "Widget"}
	for _, r := range ratios {
		e.PriceHistory = append(e.PriceHistory, models.PriceSnapshot{Ratio: r})
	}
	return e
}

func TestRatioTrendShortHistory(t *testing.T) {
	tr := RatioTrend(entryWithRatios(1.0, 1.2, 0.9))
	require.Equal(t, 3, tr.Snapshots)
	require.Equal(t, 0.9, *tr.Latest)
	require.Equal(t, 0.9, *tr.Min)
	require.Equal(t, 1.2, *tr.Max)
	require.Equal(t, -0.1, *tr.Change)
	require.Nil(t, tr.MA5)
	require.Nil(t, tr.EMA12)
	require.Nil(t, tr.RSI14)

	empty := RatioTrend(entryWithRatios())
	require.Zero(t, empty.Snapshots)
	require.Nil(t, empty.Latest)
}

func TestRatioTrendIndicators(t *testing.T) {
	var ratios []float64
	for i := 0; i < 20; i++ {
		ratios = append(ratios, 1.0+float64(i)*0.01)
	}
	tr := RatioTrend(entryWithRatios(ratios...))

	// last five: 1.15 .. 1.19
	require.Equal(t, 1.17, *tr.MA5)
	require.Equal(t, 1.095, *tr.MA20)
	require.NotNil(t, tr.EMA12)
	// strictly rising series
	require.Equal(t, 100.0, *tr.RSI14)
}

func TestRSIFlatSeries(t *testing.T) {
	flat := make([]float64, 15)
	for i := range flat {
		flat[i] = 1
	}
	require.Equal(t, 50.0, rsi(flat, 14))
}

func TestEMASeed(t *testing.T) {
	require.InDelta(t, 2.0, ema([]float64{1, 2, 3}, 3), 1e-12)
	// k = 0.5 for period 3
	require.InDelta(t, 3.0, ema([]float64{1, 2, 3, 4}, 3), 1e-12)
}
