package adapter

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"EventScout/internal/config"
	"EventScout/internal/fetch"
	"EventScout/internal/normalize"
)

// Base 各站点适配器的公共部分（抓取客户端+配置+日志）
type Base struct {
	Cfg      *config.SourceConfig
	Scraping *config.ScrapingConfig
	Client   *fetch.Client
	Logger   *logrus.Entry
}

// NewBase 构建适配器公共部分（每个实例独占一个抓取客户端）
func NewBase(name string, cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) Base {
	return Base{
		Cfg:      cfg,
		Scraping: scraping,
		Client:   fetch.NewClient(name, scraping, logger),
		Logger:   logger.WithField("source", name),
	}
}

// MaxEvents 本源单轮抓取上限（未配置时取全局默认）
func (b *Base) MaxEvents() int {
	if b.Cfg.MaxEvents > 0 {
		return b.Cfg.MaxEvents
	}
	return b.Scraping.MaxEventsDefault
}

// Host 站点host（从base_url解析）
func (b *Base) Host() string {
	u, err := url.Parse(b.Cfg.BaseURL)
	if err != nil {
		return b.Cfg.BaseURL
	}
	return u.Host
}

// ResolveURL 相对链接转绝对链接
func (b *Base) ResolveURL(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(b.Cfg.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// ========== 选择器链提取工具（各站点结构多变，按优先级逐个尝试） ==========

// FirstMatch 按顺序尝试选择器，返回第一个命中的节点集合
func FirstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// FindByClassKeyword 兜底策略：class属性包含任一关键词的元素
func FindByClassKeyword(doc *goquery.Document, keywords []string) *goquery.Selection {
	re := regexp.MustCompile(`(?i)(` + strings.Join(keywords, "|") + `)`)
	return doc.Find("div, article, li, section").FilterFunction(func(_ int, s *goquery.Selection) bool {
		cls, _ := s.Attr("class")
		return re.MatchString(cls)
	})
}

// TextOf 节点内第一个命中选择器的清洗文本
func TextOf(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			if text := normalize.CleanText(found.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// AttrOf 节点内第一个命中选择器的属性值
func AttrOf(s *goquery.Selection, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			if v, ok := found.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// LinkOf 节点本身或内部第一个a标签的href
func LinkOf(s *goquery.Selection) string {
	if href, ok := s.Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	return AttrOf(s, "href", "a")
}

// ImageOf 节点内第一个img的地址（兼容懒加载属性）
func ImageOf(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v := AttrOf(s, attr, "img"); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}
