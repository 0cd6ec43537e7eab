package transport

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Options 网络传输配置
type Options struct {
	ProxyURL     string
	DisableProxy bool // 例如在 GitHub Actions 中直连
	Timeout      time.Duration
	UserAgent    string
	Logger       *log.Logger
}

// Configure builds the shared HTTP client once at process start. Every
// fetcher receives the returned client instead of relying on a global
// dispatcher, so tests can hand them a client pointed at a stub server.
// An unusable proxy is logged and the client connects directly.
func Configure(opts Options) (*resty.Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", ua)

	switch {
	case opts.DisableProxy:
		logger.Println("检测到GitHub Actions环境，跳过代理设置")
	case opts.ProxyURL != "":
		u, err := parseProxy(opts.ProxyURL)
		if err != nil {
			// 代理不可用时退回直连，不中断运行
			logger.Printf("代理初始化失败，使用直连: %v", err)
			break
		}
		client.SetProxy(u.String())
		logger.Printf("启用代理: %s", u.Redacted())
	default:
		logger.Println("未设置代理，使用直连")
	}

	return client, nil
}

func parseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("代理地址无效 %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("代理地址无效 %q: 缺少协议或主机", raw)
	}
	return u, nil
}
