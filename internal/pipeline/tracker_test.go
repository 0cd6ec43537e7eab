package pipeline

import (
	"context"
	"errors"
	"testing"

	"steam-buff-tracker/internal/models"
	"steam-buff-tracker/internal/services/buff"

	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	url   string
	pages int
}

type fakeListings struct {
	calls  []fetchCall
	byURL  map[string][]models.Listing
	errURL string
}

func (f *fakeListings) FetchAll(_ context.Context, url string, pages int) ([]models.Listing, error) {
	f.calls = append(f.calls, fetchCall{url: url, pages: pages})
	if url == f.errURL {
		return f.byURL[url], context.Canceled
	}
	return f.byURL[url], nil
}

type fakeRates struct {
	calls int
	rate  float64
	err   error
}

func (f *fakeRates) ResolveUSDToCNY(context.Context) (float64, error) {
	f.calls++
	return f.rate, f.err
}

func TestTrackerRun(t *testing.T) {
	lookup := &fakeLookup{records: map[string]*models.BuffRecord{
		"Knife":   {Price: 120, GoodsID: "7", Orders: []models.Order{{Price: 120, Nickname: "seller"}}},
		"Courier": {Price: 30, GoodsID: "9"},
	}}
	listings := &fakeListings{byURL: map[string][]models.Listing{
		"https://steam/csgo":  {listing("Knife", "$20 USD", "k")},
		"https://steam/dota2": {listing("Courier", "¥ 40.00", "c")},
	}}
	rates := &fakeRates{rate: 7.0}
	r, _ := newTestReconciler(lookup, 2)
	tr := NewTracker(listings, rates, r, nil)

	res, err := tr.Run(context.Background(), []models.TrackedItem{
		{Name: "csgo", URL: "https://steam/csgo", Page: 3},
		{Name: "tf2"},
		{Name: "dota2", URL: "https://steam/dota2"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, rates.calls)
	require.Equal(t, []fetchCall{{"https://steam/csgo", 3}, {"https://steam/dota2", 1}}, listings.calls)

	require.Len(t, res.Records, 2)
	require.Equal(t, 140.0, res.Records[0].Prices.SteamPrice)
	require.Equal(t, "seller", res.Records[0].Prices.BuffUsername)
	require.Equal(t, 40.0, res.Records[1].Prices.SteamPrice)

	require.Equal(t, buff.GameCSGO, lookup.calls[0].game)
	require.Equal(t, buff.GameDota2, lookup.calls[1].game)
	// cursor carries over from the first item
	require.Equal(t, []int{0, 1}, lookup.cookieIndices())
}

func TestTrackerRateFailureIsCached(t *testing.T) {
	listings := &fakeListings{byURL: map[string][]models.Listing{
		"u1": {listing("A", "$20 USD", "a")},
		"u2": {listing("B", "$20 USD", "b")},
	}}
	rates := &fakeRates{err: errors.New("boom")}
	lookup := &fakeLookup{}
	r, _ := newTestReconciler(lookup, 1)
	tr := NewTracker(listings, rates, r, nil)

	res, err := tr.Run(context.Background(), []models.TrackedItem{
		{Name: "csgo", URL: "u1"},
		{Name: "csgo", URL: "u2"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, rates.calls)
	require.Equal(t, 0.0, tr.Rate(context.Background()))
	// without a rate "$20 USD" reads as ¥20
	require.Len(t, lookup.calls, 2)
	require.Len(t, res.Skips, 2)
}

func TestTrackerNoURLNeverResolvesRate(t *testing.T) {
	rates := &fakeRates{rate: 7}
	r, _ := newTestReconciler(&fakeLookup{}, 1)
	tr := NewTracker(&fakeListings{}, rates, r, nil)

	res, err := tr.Run(context.Background(), []models.TrackedItem{{Name: "csgo"}})
	require.NoError(t, err)
	require.Zero(t, rates.calls)
	require.Empty(t, res.Records)
}

func TestTrackerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listings := &fakeListings{}
	r, _ := newTestReconciler(&fakeLookup{}, 1)
	tr := NewTracker(listings, &fakeRates{}, r, nil)

	_, err := tr.Run(ctx, []models.TrackedItem{{Name: "csgo", URL: "u"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, listings.calls)
}
