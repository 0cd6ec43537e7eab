package pipeline

import (
	"context"
	"io"
	"log"
	"time"

	"steam-buff-tracker/internal/delay"
	"steam-buff-tracker/internal/models"
	"steam-buff-tracker/internal/services/buff"
)

// UnknownUser 无在售订单时的卖家名
const UnknownUser = "未知用户"

// PriceLookup is the BUFF side of the reconciliation.
type PriceLookup interface {
	LookupPrice(ctx context.Context, name string, cookieIndex int, game buff.Game) (*models.BuffRecord, error)
}

// SkipReason 跳过原因
type SkipReason string

const (
	SkipMissingName     SkipReason = "missing_name"
	SkipUnparsablePrice SkipReason = "unparsable_price"
	SkipBelowThreshold  SkipReason = "below_threshold"
	SkipNoBuffMatch     SkipReason = "no_buff_match"
)

// Skip records one listing that produced no PriceRecord.
type Skip struct {
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Result 一次对账的汇总：成功记录与跳过原因
type Result struct {
	Records []models.PriceRecord `json:"records"`
	Skips   []Skip               `json:"skips"`
}

// Reconciler matches Steam listings against BUFF prices one at a time.
// The cookie cursor lives on the reconciler and carries across calls made
// during one run. It is not safe for concurrent use.
type Reconciler struct {
	lookup   PriceLookup
	poolSize int
	cursor   int

	logger *log.Logger
	sleep  delay.Sleeper
	jitter *delay.Jitter
	now    func() time.Time
}

func NewReconciler(lookup PriceLookup, poolSize int, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reconciler{
		lookup:   lookup,
		poolSize: poolSize,
		logger:   logger,
		sleep:    delay.Sleep,
		jitter:   delay.NewJitter(time.Now().UnixNano()),
		now:      time.Now,
	}
}

// SetSleeper replaces the wait between listings.
func (r *Reconciler) SetSleeper(fn delay.Sleeper) { r.sleep = fn }

// SetClock replaces the timestamp source.
func (r *Reconciler) SetClock(fn func() time.Time) { r.now = fn }

// SetJitter replaces the random delay source.
func (r *Reconciler) SetJitter(j *delay.Jitter) { r.jitter = j }

// Cursor returns the cookie index the next listing will use.
func (r *Reconciler) Cursor() int { return r.cursor }

// ItemDelay returns the wait range between listings; a single credential
// backs off harder.
func ItemDelay(poolSize int) (lo, hi time.Duration) {
	if poolSize >= 2 {
		return 2 * time.Second, 5 * time.Second
	}
	return 5 * time.Second, 10 * time.Second
}

// Reconcile processes listings in order. rate <= 0 means no USD conversion
// is available. Skipped listings are reported in Result.Skips; a cancelled
// context stops the loop and returns what was built so far.
func (r *Reconciler) Reconcile(ctx context.Context, listings []models.Listing, rate float64, game buff.Game) *Result {
	res := &Result{Records: []models.PriceRecord{}, Skips: []Skip{}}
	r.logger.Printf("检测到 %d 个可用 Cookie", r.poolSize)

	for i, item := range listings {
		r.logger.Printf("处理第 %d/%d 个物品: %s", i+1, len(listings), item.Name)

		if rec, skip := r.reconcileOne(ctx, i, item, rate, game); skip != nil {
			res.Skips = append(res.Skips, *skip)
		} else {
			res.Records = append(res.Records, *rec)
		}

		if r.poolSize > 0 {
			r.cursor = (r.cursor + 1) % r.poolSize
		}

		if i < len(listings)-1 {
			lo, hi := ItemDelay(r.poolSize)
			d := r.jitter.Between(lo, hi)
			r.logger.Printf("等待 %v 后处理下一个物品... (%d个Cookie)", d, r.poolSize)
			if err := r.sleep(ctx, d); err != nil {
				r.logger.Printf("对账中断: %v", err)
				break
			}
		}
	}
	return res
}

func (r *Reconciler) reconcileOne(ctx context.Context, i int, item models.Listing, rate float64, game buff.Game) (*models.PriceRecord, *Skip) {
	if item.Name == "" {
		r.logger.Printf("第 %d 个物品名称缺失，跳过: %s", i+1, item.Link)
		return nil, &Skip{Index: i, Reason: SkipMissingName, Detail: item.Link}
	}

	steamPrice, err := ParseSteamPrice(item.Price(), rate)
	if err != nil {
		r.logger.Printf("%s 的 Steam 价格解析失败: %q", item.Name, item.Price())
		return nil, &Skip{Index: i, Name: item.Name, Reason: SkipUnparsablePrice, Detail: err.Error()}
	}
	if steamPrice < MinSteamPrice {
		r.logger.Printf("%s 的 Steam 价格低于 ¥5（解析值: ¥%v），跳过", item.Name, steamPrice)
		return nil, &Skip{Index: i, Name: item.Name, Reason: SkipBelowThreshold}
	}

	rec, err := r.lookup.LookupPrice(ctx, item.Name, r.cursor, game)
	if err != nil || rec == nil {
		detail := "empty record"
		if err != nil {
			detail = err.Error()
		}
		r.logger.Printf("未找到 %s 的 Buff 数据，跳过: %s", item.Name, detail)
		return nil, &Skip{Index: i, Name: item.Name, Reason: SkipNoBuffMatch, Detail: detail}
	}

	username := UnknownUser
	if len(rec.Orders) > 0 {
		username = rec.Orders[0].Nickname
	}
	ratio := Ratio(rec.Price, steamPrice)

	r.logger.Printf("成功处理: %s - Steam: ¥%v, Buff: ¥%v, 比例: %.4f", item.Name, steamPrice, rec.Price, ratio)
	return &models.PriceRecord{
		ItemIndex: i + 1,
		Name:      item.Name,
		GoodsID:   rec.GoodsID,
		Link:      item.Link,
		Prices: models.PriceSnapshot{
			SteamPrice:   steamPrice,
			BuffPrice:    rec.Price,
			BuffUsername: username,
			Timestamp:    r.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Ratio:        ratio,
		},
		Game: string(game),
	}, nil
}
