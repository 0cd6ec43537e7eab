package catalog

import (
	"math"

	"steam-buff-tracker/internal/models"
)

// Trend 某物品比例历史的技术指标（取最新一个点）
// 数据不足的指标为 nil
type Trend struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Snapshots int      `json:"snapshots"`
	Latest    *float64 `json:"latest,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Change    *float64 `json:"change,omitempty"` // latest - first

	MA5   *float64 `json:"ma5,omitempty"`
	MA20  *float64 `json:"ma20,omitempty"`
	EMA12 *float64 `json:"ema12,omitempty"`
	RSI14 *float64 `json:"rsi14,omitempty"`
}

// RatioTrend computes indicators over the ratio series of an entry.
func RatioTrend(e models.CatalogEntry) Trend {
	series := make([]float64, 0, len(e.PriceHistory))
	for _, s := range e.PriceHistory {
		series = append(series, s.Ratio)
	}

	t := Trend{ID: e.ID, Name: e.Name, Snapshots: len(series)}
	if len(series) == 0 {
		return t
	}

	lo, hi := series[0], series[0]
	for _, v := range series[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	last := series[len(series)-1]
	t.Latest = rounded(last)
	t.Min = rounded(lo)
	t.Max = rounded(hi)
	t.Change = rounded(last - series[0])

	t.MA5 = rounded(movingAverage(series, 5))
	t.MA20 = rounded(movingAverage(series, 20))
	t.EMA12 = rounded(ema(series, 12))
	t.RSI14 = rounded(rsi(series, 14))
	return t
}

// movingAverage of the last period values.
func movingAverage(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// ema seeds with the SMA of the first period values.
func ema(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return math.NaN()
	}
	k := 2.0 / (float64(period) + 1)
	v := movingAverage(series[:period], period)
	for _, x := range series[period:] {
		v = x*k + v*(1-k)
	}
	return v
}

// rsi uses Wilder smoothing.
func rsi(series []float64, period int) float64 {
	if period <= 0 || len(series) < period+1 {
		return math.NaN()
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		if d := series[i] - series[i-1]; d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	for i := period + 1; i < len(series); i++ {
		d := series[i] - series[i-1]
		up, down := 0.0, 0.0
		if d > 0 {
			up = d
		} else {
			down = -d
		}
		gain = (gain*float64(period-1) + up) / float64(period)
		loss = (loss*float64(period-1) + down) / float64(period)
	}

	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

func rounded(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := math.Round(v*10000) / 10000
	return &r
}
