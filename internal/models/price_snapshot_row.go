package models

import "time"

// PriceSnapshotRow mirrors every snapshot written to the catalog into MySQL
// so price series can be queried without parsing data.json.
type PriceSnapshotRow struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name" gorm:"index;size:255;not null"`
	GoodsID      string  `json:"goods_id" gorm:"index;size:64"`
	Game         string  `json:"game" gorm:"size:16"`
	Link         string  `json:"link" gorm:"type:text"`
	SteamPrice   float64 `json:"steam_price"`
	BuffPrice    float64 `json:"buff_price"`
	BuffUsername string  `json:"buff_username" gorm:"size:128"`
	Ratio        float64 `json:"ratio"`

	// Source timestamp
	ObservedAt time.Time `json:"observed_at" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName keeps the table name stable regardless of gorm naming strategy.
func (PriceSnapshotRow) TableName() string {
	return "price_snapshots"
}
