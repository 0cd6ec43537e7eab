package pipeline

import (
	"context"
	"io"
	"log"

	"steam-buff-tracker/internal/models"
	"steam-buff-tracker/internal/services/buff"
)

// ListingSource 提供 Steam 搜索结果
type ListingSource interface {
	FetchAll(ctx context.Context, searchURL string, pages int) ([]models.Listing, error)
}

// RateSource 提供 USD->CNY 汇率
type RateSource interface {
	ResolveUSDToCNY(ctx context.Context) (float64, error)
}

// Tracker runs the tracked items of one pipeline run in order.
type Tracker struct {
	listings   ListingSource
	rates      RateSource
	reconciler *Reconciler
	logger     *log.Logger

	rate         float64
	rateResolved bool
}

func NewTracker(listings ListingSource, rates RateSource, reconciler *Reconciler, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Tracker{
		listings:   listings,
		rates:      rates,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Rate returns the cached conversion rate, resolving it on first use. A
// failed resolution is cached as 0 so it is attempted once per run.
func (t *Tracker) Rate(ctx context.Context) float64 {
	if t.rateResolved {
		return t.rate
	}
	t.rateResolved = true

	rate, err := t.rates.ResolveUSDToCNY(ctx)
	if err != nil {
		t.logger.Printf("获取汇率失败，美元价格将不做转换: %v", err)
		return 0
	}
	t.rate = rate
	return rate
}

// Run scrapes and reconciles every item. Items without a URL are skipped.
// The returned Result aggregates every item; a cancelled context stops the
// run and returns the records gathered so far with ctx.Err().
func (t *Tracker) Run(ctx context.Context, items []models.TrackedItem) (*Result, error) {
	total := &Result{Records: []models.PriceRecord{}, Skips: []Skip{}}

	for _, item := range items {
		if item.URL == "" {
			t.logger.Printf("跳过没有URL的配置项: %s", item.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}

		pages := item.Page
		if pages <= 0 {
			pages = 1
		}
		t.logger.Printf("开始处理 %s (%d 页): %s", item.Name, pages, item.URL)

		rate := t.Rate(ctx)
		listings, err := t.listings.FetchAll(ctx, item.URL, pages)
		if err != nil {
			t.logger.Printf("抓取 %s 中断: %v", item.Name, err)
		}

		res := t.reconciler.Reconcile(ctx, listings, rate, buff.ParseGame(item.Name))
		total.Records = append(total.Records, res.Records...)
		total.Skips = append(total.Skips, res.Skips...)
		t.logger.Printf("%s 处理完成: 成功 %d 条, 跳过 %d 条", item.Name, len(res.Records), len(res.Skips))
	}

	return total, ctx.Err()
}
