// Package catalog keeps the persisted price catalog (data/data.json).
package catalog

import "steam-buff-tracker/internal/models"

// Merge folds records into entries in order. A record joins the first entry
// with the same name; otherwise a new entry is created with id len+1. The
// input slice and its histories are left untouched.
func Merge(entries []models.CatalogEntry, records []models.PriceRecord) []models.CatalogEntry {
	out := make([]models.CatalogEntry, len(entries), len(entries)+len(records))
	copy(out, entries)
	// histories are shared with the input until an entry is appended to
	owned := make(map[int]bool)

	for _, rec := range records {
		idx := indexByName(out, rec.Name)
		if idx < 0 {
			out = append(out, models.CatalogEntry{
				ID:           len(out) + 1,
				Name:         rec.Name,
				BuffLink:     rec.BuffLink(),
				Link:         rec.Link,
				PriceHistory: []models.PriceSnapshot{rec.Prices},
			})
			owned[len(out)-1] = true
			continue
		}

		if !owned[idx] {
			history := make([]models.PriceSnapshot, len(out[idx].PriceHistory), len(out[idx].PriceHistory)+1)
			copy(history, out[idx].PriceHistory)
			out[idx].PriceHistory = history
			owned[idx] = true
		}
		out[idx].PriceHistory = append(out[idx].PriceHistory, rec.Prices)
	}
	return out
}

func indexByName(entries []models.CatalogEntry, name string) int {
	for i := range entries {
		if entries[i].Name == name {
			return i
		}
	}
	return -1
}
