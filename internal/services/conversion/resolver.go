package conversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultURL Google Finance batchexecute 接口
const DefaultURL = "https://www.google.com/finance/_/GoogleFinanceUi/data/batchexecute"

// requestBody 固定的 f.req 请求体（USD-CNY 报价）
const requestBody = "f.req=%5B%5B%5B%22HqGpWd%22%2C%22%5B%5B%5Bnull%2Cnull%2C%5B%5C%22USD%5C%22%2C%5C%22CNY%5C%22%5D%5D%5D%5D%22%2Cnull%2C%223%22%5D%2C%5B%22xh8wxf%22%2C%22%5B%5B%5Bnull%2Cnull%2C%5B%5C%22USD%5C%22%2C%5C%22CNY%5C%22%5D%5D%5D%2C1%5D%22%2Cnull%2C%225%22%5D%2C%5B%22mKsvE%22%2C%22%5B%5C%22USD-CNY%5C%22%5D%22%2Cnull%2C%2213%22%5D%2C%5B%22AiCwsd%22%2C%22%5B%5B%5Bnull%2Cnull%2C%5B%5C%22USD%5C%22%2C%5C%22CNY%5C%22%5D%5D%5D%2C1%5D%22%2Cnull%2C%2221%22%5D%2C%5B%22AiCwsd%22%2C%22%5B%5B%5Bnull%2Cnull%2C%5B%5C%22USD%5C%22%2C%5C%22CNY%5C%22%5D%5D%5D%2C3%5D%22%2Cnull%2C%2223%22%5D%2C%5B%22SICF5d%22%2C%22%5B%5Bnull%2Cnull%2C%5B%5C%22USD%5C%22%2C%5C%22CNY%5C%22%5D%5D%5D%22%2Cnull%2C%2225%22%5D%2C%5B%22Pr8h2e%22%2C%22%5B%5B%5B%5D%5D%5D%22%2Cnull%2C%2227%22%5D%2C%5B%22yYvDpf%22%2C%22%5B%5B%5D%5D%22%2Cnull%2C%2229%22%5D%2C%5B%22xh8wxf%22%2C%22%5B%5B%5Bnull%2Cnull%2C%5B%5C%22USD%5C%22%2C%5C%22CNY%5C%22%5D%5D%5D%5D%22%2Cnull%2C%2237%22%5D%5D%5D&"

// ErrRateNotFound is returned when no strategy produced a rate.
var ErrRateNotFound = errors.New("usd/cny rate not found")

// Strategy extracts a rate from the raw response text.
type Strategy func(raw string) (float64, bool)

// Strategies are tried in order; the first positive result wins.
var Strategies = []Strategy{
	HighPrecisionScan,
	ShapeDirectedMatch,
	ContextNarrowedScan,
}

// Resolver 获取美元兑人民币汇率
type Resolver struct {
	client *resty.Client
	url    string
	logger *log.Logger
}

func NewResolver(client *resty.Client, endpoint string, logger *log.Logger) *Resolver {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{client: client, url: endpoint, logger: logger}
}

// ResolveUSDToCNY issues one POST and runs the strategy cascade over the
// response text. Callers treat any error as "proceed without conversion".
func (r *Resolver) ResolveUSDToCNY(ctx context.Context) (float64, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded;charset=utf-8").
		SetHeader("X-Same-Domain", "1").
		SetBody(requestBody).
		Post(r.url)
	if err != nil {
		return 0, fmt.Errorf("请求汇率接口失败: %w", err)
	}
	if !resp.IsSuccess() {
		return 0, fmt.Errorf("汇率接口响应非 2xx: %d", resp.StatusCode())
	}

	rate, ok := Extract(resp.String())
	if !ok {
		return 0, ErrRateNotFound
	}
	r.logger.Printf("获取到 USD->CNY 汇率: %v", rate)
	return rate, nil
}

// Extract runs Strategies over raw and returns the first positive finite rate.
func Extract(raw string) (float64, bool) {
	for _, s := range Strategies {
		if v, ok := s(raw); ok && v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}

var (
	// 高精度小数（>=4位小数）；左侧不能紧跟数字、字母或下划线
	reHighPrecision = regexp.MustCompile(`(?:[1-9]\d*|0)\.\d{4,}`)

	reShape = regexp.MustCompile(`\[\s*((?:[1-9]\d*|0)\.\d{4,})\s*,\s*0\s*,\s*0\s*,\s*2(?:\s*,\s*-?\d+(?:\.\d+)?){0,8}\s*\]`)

	reCurrencyPair = regexp.MustCompile(`USD\s*/\s*CNY`)
)

const (
	windowBefore = 2000
	windowAfter  = 8000
)

// HighPrecisionScan looks at every number with at least four fractional
// digits and accepts the first one that opens a parseable array.
func HighPrecisionScan(raw string) (float64, bool) {
	for _, loc := range reHighPrecision.FindAllStringIndex(raw, -1) {
		if loc[0] > 0 && isWordByte(raw[loc[0]-1]) {
			continue
		}
		slice, ok := sliceArrayWhereNumberIsFirst(raw, loc[0])
		if !ok {
			continue
		}
		var arr []any
		if err := json.Unmarshal([]byte(slice), &arr); err != nil {
			continue
		}
		if len(arr) == 0 {
			continue
		}
		if v, ok := arr[0].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

// ShapeDirectedMatch matches arrays shaped like [7.1147,0,0,2,...] directly.
func ShapeDirectedMatch(raw string) (float64, bool) {
	for _, m := range reShape.FindAllStringSubmatch(raw, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// ContextNarrowedScan reruns HighPrecisionScan on a window around each
// "USD / CNY" marker.
func ContextNarrowedScan(raw string) (float64, bool) {
	for _, loc := range reCurrencyPair.FindAllStringIndex(raw, -1) {
		start := loc[0] - windowBefore
		if start < 0 {
			start = 0
		}
		end := loc[0] + windowAfter
		if end > len(raw) {
			end = len(raw)
		}
		if v, ok := HighPrecisionScan(raw[start:end]); ok {
			return v, true
		}
	}
	return 0, false
}

// sliceArrayWhereNumberIsFirst walks left from the number to an opening
// bracket with only whitespace in between, then right to its matching close.
func sliceArrayWhereNumberIsFirst(raw string, numberIndex int) (string, bool) {
	start := -1
	for i := numberIndex - 1; i >= 0; i-- {
		ch := raw[i]
		if ch == '[' {
			if strings.TrimSpace(raw[i+1:numberIndex]) == "" {
				start = i
			}
			break
		}
		if ch == ']' || ch == ',' {
			break
		}
	}
	if start == -1 {
		return "", false
	}

	depth := 0
	for j := start; j < len(raw); j++ {
		switch raw[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : j+1], true
			}
		}
	}
	return "", false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
