package models

import (
	"fmt"
	"time"
)

// BuffGoodsURL BUFF商品详情页地址模板
const BuffGoodsURL = "https://buff.163.com/goods/%s"

// Listing represents one row scraped from a Steam market search page.
// Fields that failed to match are left empty (Name, Link) or nil.
type Listing struct {
	Name     string  `json:"name"`
	Count    *int    `json:"count"`
	RawPrice *string `json:"price"`
	Link     string  `json:"market_listing_row_link"`
}

// Price returns the raw price string or "" when it was not extracted.
func (l Listing) Price() string {
	if l.RawPrice == nil {
		return ""
	}
	return *l.RawPrice
}

// PriceSource 记录BUFF价格来源
type PriceSource string

const (
	SourceSellOrder    PriceSource = "sell_order"     // 在售订单最低价
	SourceSellMinPrice PriceSource = "sell_min_price" // 商品汇总最低价（无在售订单时）
)

// Order is a single live BUFF sell order.
type Order struct {
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Nickname  string    `json:"nickname"`
}

// BuffRecord BUFF查询结果
// Orders keep the order returned by BUFF; Latest is the first element and
// Oldest the last one.
type BuffRecord struct {
	Price   float64     `json:"price"`
	GoodsID string      `json:"goods_id"`
	Orders  []Order     `json:"orders"`
	Latest  *Order      `json:"latest,omitempty"`
	Oldest  *Order      `json:"oldest,omitempty"`
	Source  PriceSource `json:"source"`
}

// PriceSnapshot is one timestamped observation of an item.
type PriceSnapshot struct {
	SteamPrice   float64 `json:"steam_price"`
	BuffPrice    float64 `json:"buff_price"`
	BuffUsername string  `json:"buff_username"`
	Timestamp    string  `json:"timestamp"`
	Ratio        float64 `json:"ratio"`
}

// PriceRecord 一次成功对账的结果，创建后不再修改
type PriceRecord struct {
	ItemIndex int           `json:"id"`
	Name      string        `json:"name"`
	GoodsID   string        `json:"goods_id"`
	Link      string        `json:"link"`
	Prices    PriceSnapshot `json:"prices"`

	// BUFF 游戏分类，仅用于数据库镜像
	Game string `json:"-"`
}

// BuffLink returns the BUFF goods page of the record.
func (r PriceRecord) BuffLink() string {
	if r.GoodsID == "" {
		return ""
	}
	return fmt.Sprintf(BuffGoodsURL, r.GoodsID)
}

// CatalogEntry is one item of the persisted catalog (data/data.json).
type CatalogEntry struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	BuffLink     string          `json:"buff_link"`
	Link         string          `json:"link"`
	PriceHistory []PriceSnapshot `json:"price_history"`
}

// Latest returns the most recent snapshot of the entry.
func (e CatalogEntry) Latest() (PriceSnapshot, bool) {
	if len(e.PriceHistory) == 0 {
		return PriceSnapshot{}, false
	}
	return e.PriceHistory[len(e.PriceHistory)-1], true
}

// TrackedItem 监控配置（config/items.json 中的一项）
// Name 同时作为BUFF的game参数（csgo / dota2）
type TrackedItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Page int    `json:"page"`
}
