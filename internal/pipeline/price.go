package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SteamFee Steam 市场手续费系数，固定值
	SteamFee = 0.85
	// MinSteamPrice 低于该价格（人民币）不再查询 BUFF
	MinSteamPrice = 5.0
)

var (
	// $2.10 USD / $ 2.10 / $1,234.56
	reUSD = regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(USD)?`)
	// everything that is not part of a number
	reNotNumeric = regexp.MustCompile(`[^0-9.,\-]`)
)

// ParseSteamPrice converts a Steam price string into CNY. USD prices are
// converted with rate when rate > 0; everything else is read as CNY.
func ParseSteamPrice(raw string, rate float64) (float64, error) {
	if rate > 0 {
		if m := reUSD.FindStringSubmatch(raw); m != nil {
			if usd, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				return Round(usd*rate, 2), nil
			}
		}
	}

	cleaned := normalizeSeparators(reNotNumeric.ReplaceAllString(raw, ""))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("价格解析失败 %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("价格非有限数值 %q", raw)
	}
	return v, nil
}

// normalizeSeparators: with a dot present commas group thousands; a lone
// comma is the decimal point; several commas group thousands. Stray
// separators at either end ("12,34 pуб.") are dropped first.
func normalizeSeparators(s string) string {
	s = strings.Trim(s, ".,")
	switch {
	case strings.Contains(s, "."):
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}

// Ratio is buffPrice / (steamPrice * SteamFee) rounded to 4 decimals.
func Ratio(buffPrice, steamPrice float64) float64 {
	return Round(buffPrice/(steamPrice*SteamFee), 4)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
