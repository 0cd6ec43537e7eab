package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"steam-buff-tracker/internal/delay"
	"steam-buff-tracker/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	// PageSize Steam 搜索接口每页条数
	PageSize = 10
	// PageDelay 两页之间的等待，避免被限流
	PageDelay = 1000 * time.Millisecond

	acceptLanguage = "zh-CN,zh;q=0.8,zh-TW;q=0.7,zh-HK;q=0.5,en-US;q=0.3,en;q=0.2"
)

// Scraper 抓取 Steam 市场搜索结果 (market/search/render)
type Scraper struct {
	client *resty.Client
	logger *log.Logger
	sleep  delay.Sleeper
}

// searchRenderResponse 只关心内嵌的 HTML 片段
type searchRenderResponse struct {
	Success     bool   `json:"success"`
	TotalCount  int    `json:"total_count"`
	ResultsHTML string `json:"results_html"`
}

func NewScraper(client *resty.Client, logger *log.Logger) *Scraper {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scraper{
		client: client,
		logger: logger,
		sleep:  delay.Sleep,
	}
}

// SetSleeper replaces the inter-page wait (tests use a no-op).
func (s *Scraper) SetSleeper(fn delay.Sleeper) {
	s.sleep = fn
}

// FetchAll fetches pages [0, pages) sequentially. A failed page contributes
// nothing; only context cancellation stops the loop early.
func (s *Scraper) FetchAll(ctx context.Context, searchURL string, pages int) ([]models.Listing, error) {
	if pages <= 0 {
		pages = 1
	}
	var all []models.Listing
	for page := 0; page < pages; page++ {
		listings := s.FetchPage(ctx, searchURL, page)
		all = append(all, listings...)
		s.logger.Printf("第 %d 页提取到 %d 条数据", page+1, len(listings))

		if page < pages-1 {
			if err := s.sleep(ctx, PageDelay); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// FetchPage fetches one result page. Errors are logged and yield an empty
// slice so sibling pages still run.
func (s *Scraper) FetchPage(ctx context.Context, searchURL string, pageIndex int) []models.Listing {
	pageURL, err := PageURL(searchURL, pageIndex*PageSize)
	if err != nil {
		s.logger.Printf("第 %d 页URL无效: %v", pageIndex+1, err)
		return nil
	}
	s.logger.Printf("获取第 %d 页数据 (start=%d)", pageIndex+1, pageIndex*PageSize)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept-Language", acceptLanguage).
		Get(pageURL)
	if err != nil {
		s.logger.Printf("获取第 %d 页数据时出错: %v", pageIndex+1, err)
		return nil
	}
	if !resp.IsSuccess() {
		body := resp.String()
		if len(body) > 500 {
			body = body[:500]
		}
		s.logger.Printf("第 %d 页响应非 2xx (%d)，正文预览：%s", pageIndex+1, resp.StatusCode(), body)
		return nil
	}

	var data searchRenderResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		s.logger.Printf("第 %d 页响应解析失败: %v", pageIndex+1, err)
		return nil
	}
	return ParseResults(data.ResultsHTML)
}

// PageURL rewrites the start query parameter of searchURL.
func PageURL(searchURL string, start int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("missing scheme or host: %q", searchURL)
	}
	q := u.Query()
	q.Set("start", strconv.Itoa(start))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var (
	reRow = regexp.MustCompile(`<a\s+class="market_listing_row_link"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)

	// 名称：优先通用类名，再回退 result_*_name
	nameRules = []*regexp.Regexp{
		regexp.MustCompile(`class="market_listing_item_name"[\s\S]*?>\s*([^<]+)\s*<`),
		regexp.MustCompile(`id="result_\d+_name"[\s\S]*?>\s*([^<]+)\s*<`),
	}

	reQty      = regexp.MustCompile(`class="market_listing_num_listings_qty"[^>]*>\s*([0-9][0-9.,\s]*)`)
	reNonDigit = regexp.MustCompile(`[^0-9]`)

	// 价格：normal_price 或 sale_price
	priceRules = []*regexp.Regexp{
		regexp.MustCompile(`class="normal_price"[\s\S]*?>\s*([^<\n]+)\s*<`),
		regexp.MustCompile(`class="sale_price"[\s\S]*?>\s*([^<\n]+)\s*<`),
	}
)

// ParseResults extracts every listing row from a results_html fragment.
func ParseResults(html string) []models.Listing {
	var listings []models.Listing
	for _, m := range reRow.FindAllStringSubmatch(html, -1) {
		link, block := m[1], m[2]

		listing := models.Listing{Link: link}
		if name, ok := firstMatch(nameRules, block); ok {
			listing.Name = name
		}
		if qm := reQty.FindStringSubmatch(block); qm != nil {
			if n, err := strconv.Atoi(reNonDigit.ReplaceAllString(qm[1], "")); err == nil {
				listing.Count = &n
			}
		}
		if price, ok := firstMatch(priceRules, block); ok {
			listing.RawPrice = &price
		}
		listings = append(listings, listing)
	}
	return listings
}

func firstMatch(rules []*regexp.Regexp, block string) (string, bool) {
	for _, re := range rules {
		if m := re.FindStringSubmatch(block); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
