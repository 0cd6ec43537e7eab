package buff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"steam-buff-tracker/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	BaseURL = "https://buff.163.com"

	goodsPath     = "/api/market/goods"
	sellOrderPath = "/api/market/goods/sell_order"

	// UnknownNickname 订单卖家昵称缺失时使用
	UnknownNickname = "unknown"
)

// Game BUFF 游戏分类
type Game string

const (
	GameCSGO  Game = "csgo"  // primary
	GameDota2 Game = "dota2" // secondary
)

// ParseGame maps a config value to a Game; anything unrecognised is csgo.
func ParseGame(s string) Game {
	switch Game(strings.ToLower(strings.TrimSpace(s))) {
	case GameDota2:
		return GameDota2
	default:
		return GameCSGO
	}
}

// ErrNoMatch means the search returned no item with exactly the queried name.
var ErrNoMatch = errors.New("no exact buff match")

// Client 使用轮换 Cookie 查询 BUFF 价格
type Client struct {
	client  *resty.Client
	pool    *CredentialPool
	baseURL string
	logger  *log.Logger
}

func NewClient(client *resty.Client, pool *CredentialPool, baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if pool == nil {
		pool = NewCredentialPool(nil)
	}
	return &Client{
		client:  client,
		pool:    pool,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Pool returns the credential pool backing the client.
func (c *Client) Pool() *CredentialPool {
	return c.pool
}

// goodsResponse /api/market/goods 搜索结果
type goodsResponse struct {
	Code string `json:"code"`
	Msg  any    `json:"msg"`
	Data struct {
		Items []goodsItem `json:"items"`
	} `json:"data"`
}

type goodsItem struct {
	ID             json.Number `json:"id"`
	Name           string      `json:"name"`
	MarketHashName string      `json:"market_hash_name"`
	SellMinPrice   string      `json:"sell_min_price"`
	SellNum        int         `json:"sell_num"`
	TransactedNum  int         `json:"transacted_num"`
}

// envelope BUFF 接口统一返回 code/msg
type envelope interface {
	status() string
	message() any
}

func (r *goodsResponse) status() string { return r.Code }
func (r *goodsResponse) message() any   { return r.Msg }

func (r *sellOrderResponse) status() string { return r.Code }
func (r *sellOrderResponse) message() any   { return r.Msg }

// sellOrderResponse /api/market/goods/sell_order 在售订单
type sellOrderResponse struct {
	Code string `json:"code"`
	Msg  any    `json:"msg"`
	Data struct {
		Items []struct {
			Price     string `json:"price"`
			CreatedAt int64  `json:"created_at"`
			UpdatedAt int64  `json:"updated_at"`
			UserID    string `json:"user_id"`
		} `json:"items"`
		UserInfos map[string]struct {
			Nickname string `json:"nickname"`
		} `json:"user_infos"`
	} `json:"data"`
}

// LookupPrice searches BUFF for name using credential pool[cookieIndex],
// then loads live sell orders, falling back to the summary minimum price
// when there are none. Nothing is retried.
func (c *Client) LookupPrice(ctx context.Context, name string, cookieIndex int, game Game) (*models.BuffRecord, error) {
	cookie := c.pool.Get(cookieIndex)
	c.logger.Printf("查询 %s (game=%s, Cookie 索引 %d/%d)", name, game, cookieIndex, c.pool.Size())

	item, err := c.searchExact(ctx, name, cookie, game)
	if err != nil {
		return nil, err
	}
	goodsID := item.ID.String()

	orders, err := c.sellOrders(ctx, goodsID, cookie, game)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		price, err := strconv.ParseFloat(item.SellMinPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("解析 sell_min_price %q 失败: %w", item.SellMinPrice, err)
		}
		c.logger.Printf("%s 无在售订单，使用 sell_min_price: %.2f", name, price)
		return &models.BuffRecord{
			Price:   price,
			GoodsID: goodsID,
			Orders:  []models.Order{},
			Source:  models.SourceSellMinPrice,
		}, nil
	}

	minPrice := orders[0].Price
	for _, o := range orders[1:] {
		if o.Price < minPrice {
			minPrice = o.Price
		}
	}
	latest, oldest := orders[0], orders[len(orders)-1]
	return &models.BuffRecord{
		Price:   minPrice,
		GoodsID: goodsID,
		Orders:  orders,
		Latest:  &latest,
		Oldest:  &oldest,
		Source:  models.SourceSellOrder,
	}, nil
}

func (c *Client) searchExact(ctx context.Context, name, cookie string, game Game) (*goodsItem, error) {
	var out goodsResponse
	err := c.get(ctx, goodsPath, cookie, map[string]string{
		"game":     string(game),
		"page_num": "1",
		"search":   name,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("搜索 %s 失败: %w", name, err)
	}
	for i := range out.Data.Items {
		if out.Data.Items[i].Name == name {
			return &out.Data.Items[i], nil
		}
	}
	return nil, ErrNoMatch
}

func (c *Client) sellOrders(ctx context.Context, goodsID, cookie string, game Game) ([]models.Order, error) {
	var out sellOrderResponse
	err := c.get(ctx, sellOrderPath, cookie, map[string]string{
		"game":     string(game),
		"goods_id": goodsID,
		"page_num": "1",
		"sort_by":  "default",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("获取在售订单 %s 失败: %w", goodsID, err)
	}

	orders := make([]models.Order, 0, len(out.Data.Items))
	for _, it := range out.Data.Items {
		price, err := strconv.ParseFloat(it.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("解析订单价格 %q 失败: %w", it.Price, err)
		}
		nickname := UnknownNickname
		if info, ok := out.Data.UserInfos[it.UserID]; ok && info.Nickname != "" {
			nickname = info.Nickname
		}
		orders = append(orders, models.Order{
			Price:     price,
			CreatedAt: time.Unix(it.CreatedAt, 0).UTC(),
			UpdatedAt: time.Unix(it.UpdatedAt, 0).UTC(),
			Nickname:  nickname,
		})
	}
	return orders, nil
}

// get performs one authenticated GET and decodes a BUFF envelope into out.
func (c *Client) get(ctx context.Context, path, cookie string, params map[string]string, out envelope) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Cookie", cookie).
		SetHeader("Accept", "application/json, text/javascript, */*; q=0.01").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Referer", c.baseURL+"/market/").
		SetQueryParams(params).
		Get(c.baseURL + path)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("响应非 2xx: %d", resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	if code := out.status(); code != "OK" {
		return fmt.Errorf("BUFF 返回错误 code=%s msg=%v", code, out.message())
	}
	return nil
}
