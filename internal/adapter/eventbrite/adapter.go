package eventbrite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"EventScout/internal/adapter"
	"EventScout/internal/config"
	"EventScout/internal/interfaces"
	"EventScout/internal/model"
	"EventScout/internal/normalize"
)

const searchBase = "/d/singapore--singapore/events/"

// searchQueries 搜索覆盖面：默认页+各主题页
var searchQueries = []string{
	"",
	"?q=music",
	"?q=business",
	"?q=food+drink",
	"?q=arts",
	"?q=sports",
	"?q=technology",
	"?q=health",
	"?q=family",
	"?q=community",
}

// cardSelectors 活动卡片选择器链（站点改版频繁，按命中率排序）
var cardSelectors = []string{
	`[data-testid="event-card"]`,
	".search-event-card",
	".event-card",
	".eds-event-card",
	".discovery-event-card",
	`[class*="EventCard"]`,
}

type Adapter struct {
	adapter.Base
}

func init() {
	adapter.Register(model.SourceEventbrite, func(cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) interfaces.SourceAdapter {
		return &Adapter{Base: adapter.NewBase(string(model.SourceEventbrite), cfg, scraping, logger)}
	})
}

// GetName ========== 实现SourceAdapter接口 ==========
func (a *Adapter) GetName() string {
	return string(model.SourceEventbrite)
}

func (a *Adapter) GetHost() string {
	return a.Host()
}

// Scrape 遍历搜索页抓取活动（优先JSON-LD结构化数据，卡片选择器兜底）
func (a *Adapter) Scrape(ctx context.Context, maxEvents int) ([]*model.Listing, error) {
	var listings []*model.Listing
	seen := make(map[string]bool) // 同一活动可能出现在多个主题页

	for _, query := range searchQueries {
		if len(listings) >= maxEvents {
			break
		}
		pageURL := a.ResolveURL(searchBase + query)
		doc, err := a.Client.GetDocument(ctx, pageURL)
		if err != nil {
			a.Logger.WithError(err).WithField("url", pageURL).Warn("搜索页抓取失败，跳过")
			if ctx.Err() != nil {
				return listings, ctx.Err()
			}
			continue
		}

		// 1. 先解析JSON-LD结构化数据（字段最完整）
		pageListings := a.parseJSONLD(doc)

		// 2. JSON-LD无结果时回退到卡片选择器
		if len(pageListings) == 0 {
			pageListings = a.parseCards(doc)
		}

		for _, l := range pageListings {
			key := strings.ToLower(l.Title) + "|" + l.DateString()
			if seen[key] {
				continue
			}
			seen[key] = true
			listings = append(listings, l)
			if len(listings) >= maxEvents {
				break
			}
		}
	}

	a.Logger.WithField("count", len(listings)).Info("搜索页抓取完成")
	return listings, nil
}

// ========== JSON-LD 解析 ==========

// ldEvent schema.org Event结构（只取需要的字段）
type ldEvent struct {
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	URL         string `json:"url"`
	Image       any    `json:"image"`
	Location    struct {
		Name    string `json:"name"`
		Address any    `json:"address"`
	} `json:"location"`
	Offers any `json:"offers"`
}

func (a *Adapter) parseJSONLD(doc *goquery.Document) []*model.Listing {
	var listings []*model.Listing
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		for _, ev := range decodeLDEvents(raw) {
			if l := a.fromLDEvent(ev); l != nil {
				listings = append(listings, l)
			}
		}
	})
	return listings
}

// decodeLDEvents 兼容单对象与数组两种JSON-LD形态
func decodeLDEvents(raw string) []ldEvent {
	var single ldEvent
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type != "" {
		return []ldEvent{single}
	}
	var list []ldEvent
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	return nil
}

func (a *Adapter) fromLDEvent(ev ldEvent) *model.Listing {
	if ev.Type != "Event" && ev.Type != "EventSeries" {
		return nil
	}
	title := normalize.CleanText(ev.Name)
	if title == "" {
		return nil
	}

	l := &model.Listing{
		Title:       title,
		Description: normalize.CleanText(ev.Description),
		Venue:       normalize.CleanText(ev.Location.Name),
		Address:     ldAddress(ev.Location.Address),
		ExternalURL: ev.URL,
		ImageURL:    ldImage(ev.Image),
		Source:      "scraped",
		ScrapedFrom: string(model.SourceEventbrite),
	}
	if ev.StartDate != "" {
		if t, err := time.Parse(time.RFC3339, ev.StartDate); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			l.Date = &d
			l.Time = model.NewClock(t.Hour(), t.Minute())
		} else if d := normalize.ParseDate(ev.StartDate, time.Now()); d != nil {
			l.Date = d
		}
	}
	if ev.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, ev.EndDate); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			l.EndDate = &d
			l.EndTime = model.NewClock(t.Hour(), t.Minute())
		}
	}
	a.finish(l)
	return l
}

func ldAddress(addr any) string {
	switch v := addr.(type) {
	case string:
		return normalize.CleanText(v)
	case map[string]any:
		var parts []string
		for _, key := range []string{"streetAddress", "addressLocality", "postalCode"} {
			if s, ok := v[key].(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return normalize.CleanText(strings.Join(parts, ", "))
	}
	return ""
}

func ldImage(img any) string {
	switch v := img.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case map[string]any:
		if s, ok := v["url"].(string); ok {
			return s
		}
	}
	return ""
}

// ========== 卡片选择器兜底解析 ==========

func (a *Adapter) parseCards(doc *goquery.Document) []*model.Listing {
	cards := adapter.FirstMatch(doc, cardSelectors)
	if cards == nil {
		return nil
	}

	var listings []*model.Listing
	cards.Each(func(_ int, s *goquery.Selection) {
		title := adapter.TextOf(s, "h1", "h2", "h3", `[data-testid="event-title"]`, ".event-title", "a")
		if title == "" {
			return
		}

		l := &model.Listing{
			Title:       title,
			Description: adapter.TextOf(s, "p", ".event-description", ".summary"),
			ExternalURL: a.ResolveURL(adapter.LinkOf(s)),
			ImageURL:    a.ResolveURL(adapter.ImageOf(s)),
			Source:      "scraped",
			ScrapedFrom: string(model.SourceEventbrite),
		}

		dateText := adapter.TextOf(s, "time", ".event-date", `[data-testid="event-datetime"]`, ".date-info")
		l.Date = normalize.ParseDate(dateText, time.Now())
		l.Time = normalize.ParseClock(dateText)

		// 场馆行格式 "Venue Name • Address"
		venueLine := adapter.TextOf(s, ".location-info", ".event-venue", `[data-testid="event-location"]`, ".card-text--truncated__one")
		if venueLine != "" {
			if parts := strings.SplitN(venueLine, " • ", 2); len(parts) == 2 {
				l.Venue = strings.TrimSpace(parts[0])
				l.Address = strings.TrimSpace(parts[1])
			} else {
				l.Venue = venueLine
			}
		}

		priceText := adapter.TextOf(s, ".price", ".event-price", `[data-testid="event-price"]`)
		if priceText != "" {
			l.PriceInfo = normalize.ExtractPrice(priceText)
		}

		a.finish(l)
		listings = append(listings, l)
	})
	return listings
}

// finish 补全分类、标签与兜底描述
func (a *Adapter) finish(l *model.Listing) {
	l.CategorySlug = adapter.CategoryFromText(l.Title, l.Description)
	l.TagSlugs = append(l.TagSlugs, "eventbrite", "community")
	if l.Location == "" {
		l.Location = "Singapore"
	}
	if l.PriceInfo == "" {
		l.PriceInfo = normalize.ExtractPrice(l.Description)
	}
	if l.AgeRestrictions == "" {
		l.AgeRestrictions = normalize.ExtractAgeRestriction(l.Description)
	}
	if l.Description == "" {
		l.Description = fmt.Sprintf("%s - event in Singapore. Visit the event page for details.", l.Title)
	}
}
