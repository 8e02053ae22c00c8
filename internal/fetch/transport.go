package fetch

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// newHTTPClient 构建抓取用HTTP客户端（支持代理、超时、自动解压）
// 每个客户端只访问单一站点，连接池按单host调优
func newHTTPClient(timeout time.Duration, proxy string, logger *logrus.Logger) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	// 配置代理
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", proxy).Warn("代理地址解析失败，将不使用代理")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", proxy).Info("抓取客户端已配置代理")
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &gzipTransport{next: transport, logger: logger},
	}
}

// gzipTransport 显式协商gzip并在响应侧透明解压
// 部分活动站点对不带Accept-Encoding的请求返回非浏览器页面，这里始终声明gzip
type gzipTransport struct {
	next   http.RoundTripper
	logger *logrus.Logger
}

func (t *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip")
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// 处理gzip解压
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			t.logger.WithError(err).Warn("gzip解压失败，返回原始响应")
			return resp, nil
		}
		resp.Body = &gzipReadCloser{Reader: gzReader, raw: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
	}

	return resp, nil
}

// gzipReadCloser 关闭时同时释放解压reader与原始响应体
type gzipReadCloser struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		return err
	}
	return g.raw.Close()
}
