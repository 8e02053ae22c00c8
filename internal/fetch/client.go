package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"EventScout/internal/config"
	"EventScout/internal/metrics"
)

// 浏览器UA轮换池（请求头用；robots.txt 匹配始终用配置中的机器人UA）
var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

const (
	maxJitter     = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
	rateWindow    = time.Minute
)

// Client 礼貌抓取客户端（限速、robots.txt、重试，单host使用，每轮采集各建一个）
type Client struct {
	name    string // 所属数据源（指标label）
	httpCli *http.Client
	cfg     *config.ScrapingConfig
	logger  *logrus.Logger

	mu          sync.Mutex
	lastRequest time.Time
	window      []time.Time // 60秒滚动窗口内的请求时间戳

	robotsOnce sync.Once
	robots     *robotstxt.RobotsData // nil表示robots.txt不可用（按允许处理）
}

// NewClient 创建抓取客户端
func NewClient(name string, cfg *config.ScrapingConfig, logger *logrus.Logger) *Client {
	return &Client{
		name:    name,
		httpCli: newHTTPClient(cfg.Timeout, cfg.Proxy, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Get 抓取URL并返回响应体（含限速、robots检查与重试）
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	// 1. robots.txt 检查
	if c.cfg.RespectRobots {
		if allowed, err := c.robotsAllowed(ctx, rawURL); err == nil && !allowed {
			return nil, fmt.Errorf("%w: %s", ErrRobotsBlocked, rawURL)
		}
	}

	// 2. 限速（窗口满直接失败，不排队）
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	// 3. 带重试的请求
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryDelay * time.Duration(1<<(attempt-1))
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			c.logger.WithFields(logrus.Fields{
				"url":     rawURL,
				"attempt": attempt,
				"delay":   delay,
			}).Debug("请求失败，等待重试")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doRequest(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// 仅瞬时错误重试（429/5xx/网络错误）
		if se, ok := err.(*StatusError); ok && !se.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// GetDocument 抓取URL并解析为goquery文档
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	return doc, nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", browserAgents[rand.Intn(len(browserAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-SG,en;q=0.9")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues(c.name, "error").Inc()
		if ue, ok := err.(*url.Error); ok && ue.Timeout() {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, rawURL)
		}
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.HTTPRequestsTotal.WithLabelValues(c.name, "http_error").Inc()
		// 排空响应体以复用连接
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}
	metrics.HTTPRequestsTotal.WithLabelValues(c.name, "ok").Inc()
	return io.ReadAll(resp.Body)
}

// throttle 执行礼貌延迟与每分钟窗口限速
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()

	// 清理窗口外的时间戳
	cutoff := now.Add(-rateWindow)
	kept := c.window[:0]
	for _, ts := range c.window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	c.window = kept

	if len(c.window) >= c.cfg.RequestsPerMin {
		c.mu.Unlock()
		return ErrRateLimited
	}

	// 同host最小间隔 + 随机抖动
	var wait time.Duration
	if !c.lastRequest.IsZero() {
		elapsed := now.Sub(c.lastRequest)
		if elapsed < c.cfg.Delay {
			wait = c.cfg.Delay - elapsed
		}
	}
	wait += time.Duration(rand.Int63n(int64(maxJitter)))

	c.lastRequest = now.Add(wait)
	c.window = append(c.window, c.lastRequest)
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// robotsAllowed 检查URL是否被robots.txt允许（robots文件首次访问时拉取并缓存）
func (c *Client) robotsAllowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true, nil
	}

	c.robotsOnce.Do(func() {
		robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
		if err != nil {
			return
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		resp, err := c.httpCli.Do(req)
		if err != nil {
			c.logger.WithError(err).WithField("url", robotsURL).Debug("robots.txt 拉取失败，默认允许抓取")
			return
		}
		defer resp.Body.Close()
		data, err := robotstxt.FromResponse(resp)
		if err != nil {
			c.logger.WithError(err).WithField("url", robotsURL).Debug("robots.txt 解析失败，默认允许抓取")
			return
		}
		c.robots = data
	})

	if c.robots == nil {
		return true, nil
	}
	return c.robots.TestAgent(u.Path, c.cfg.UserAgent), nil
}
