package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"steam-buff-tracker/internal/models"
)

// MaxIndexedCookies BUFF_COOKIE_1 ... BUFF_COOKIE_4
const MaxIndexedCookies = 4

type Config struct {
	ItemsPath   string
	DataPath    string
	DatabaseURL string // 可选：快照同步写入MySQL
	ExportXLSX  string // 可选：导出Excel
	Port        string
	Debug       bool

	// BUFF 凭证池（按顺序轮换）
	BuffCookies []string
	BuffBaseURL string // 为空时使用 buff.BaseURL

	ConversionURL string // 为空时使用 conversion.DefaultURL

	// 网络配置
	ProxyURL       string
	DisableProxy   bool // GitHub Actions 中不使用代理
	RequestTimeout time.Duration
}

func Load() *Config {
	timeoutSec, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT", "30"))
	if err != nil || timeoutSec <= 0 {
		timeoutSec = 30
	}

	return &Config{
		ItemsPath:   getEnv("ITEMS_PATH", "config/items.json"),
		DataPath:    getEnv("DATA_PATH", "data/data.json"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ExportXLSX:  getEnv("EXPORT_XLSX", ""),
		Port:        getEnv("PORT", "8080"),
		Debug:       getEnv("DEBUG", "false") == "true",

		BuffCookies: LoadCookies(os.Getenv),
		BuffBaseURL: getEnv("BUFF_BASE_URL", ""),

		ConversionURL: getEnv("CONVERSION_URL", ""),

		ProxyURL:       LookupProxy(os.Getenv),
		DisableProxy:   getEnv("GITHUB_ACTIONS", "") == "true",
		RequestTimeout: time.Duration(timeoutSec) * time.Second,
	}
}

// LoadCookies 读取 BUFF_COOKIE_1..4，全部为空时回退到旧的 BUFF_COOKIE
func LoadCookies(getenv func(string) string) []string {
	var cookies []string
	for i := 1; i <= MaxIndexedCookies; i++ {
		if v := getenv(fmt.Sprintf("BUFF_COOKIE_%d", i)); v != "" {
			cookies = append(cookies, v)
		}
	}
	if len(cookies) == 0 {
		if v := getenv("BUFF_COOKIE"); v != "" {
			cookies = append(cookies, v)
		}
	}
	return cookies
}

// LookupProxy 优先级：PROXY_URL > HTTPS_PROXY > ALL_PROXY > HTTP_PROXY
func LookupProxy(getenv func(string) string) string {
	for _, key := range []string{"PROXY_URL", "HTTPS_PROXY", "ALL_PROXY", "HTTP_PROXY"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// LoadItems reads the tracked item list. The file must hold a JSON array.
func LoadItems(path string) ([]models.TrackedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	var items []models.TrackedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s 格式错误，应为数组: %w", path, err)
	}
	return items, nil
}

// Logger 组件日志，仅在 DEBUG=true 时输出
func (c *Config) Logger(prefix string) *log.Logger {
	var w io.Writer = io.Discard
	if c.Debug {
		w = os.Stdout
	}
	return log.New(w, "["+prefix+"] ", log.LstdFlags|log.Lshortfile)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
