package sunteccity

import (
	"context"
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

// eventPages 新达城官网的活动与促销页
var eventPages = []string{
	"/events/",
	"/whats-on/",
	"/happenings/",
	"/promotions/",
	"/suntec-convention/events/",
}

var cardSelectors = []string{
	".event-card",
	".promotion-card",
	".happening-card",
	".card--event",
	".listing-item",
	"article",
}

type Adapter struct {
	adapter.Base
}

func init() {
	adapter.Register(model.SourceSuntecCity, func(cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) interfaces.SourceAdapter {
		return &Adapter{Base: adapter.NewBase(string(model.SourceSuntecCity), cfg, scraping, logger)}
	})
}

func (a *Adapter) GetName() string {
	return string(model.SourceSuntecCity)
}

func (a *Adapter) GetHost() string {
	return a.Host()
}

// Scrape 单场馆源：商场活动与促销共用固定地址与坐标
func (a *Adapter) Scrape(ctx context.Context, maxEvents int) ([]*model.Listing, error) {
	var listings []*model.Listing
	seen := make(map[string]bool)

	for _, page := range eventPages {
		if len(listings) >= maxEvents {
			break
		}
		pageURL := a.ResolveURL(page)
		doc, err := a.Client.GetDocument(ctx, pageURL)
		if err != nil {
			a.Logger.WithError(err).WithField("url", pageURL).Warn("栏目页抓取失败，跳过")
			if ctx.Err() != nil {
				return listings, ctx.Err()
			}
			continue
		}

		cards := adapter.FirstMatch(doc, cardSelectors)
		if cards == nil {
			continue
		}
		cards.Each(func(_ int, s *goquery.Selection) {
			if len(listings) >= maxEvents {
				return
			}
			l := a.parseCard(s, page)
			if l == nil {
				return
			}
			key := l.Title + "|" + l.DateString()
			if seen[key] {
				return
			}
			seen[key] = true
			listings = append(listings, l)
		})
	}

	a.Logger.WithField("count", len(listings)).Info("栏目页抓取完成")
	return listings, nil
}

func (a *Adapter) parseCard(s *goquery.Selection, page string) *model.Listing {
	title := adapter.TextOf(s, "h1", "h2", "h3", ".card-title", ".title", "a")
	if title == "" {
		return nil
	}

	desc := adapter.TextOf(s, "p", ".card-description", ".description")
	lat, lng := a.Cfg.Latitude, a.Cfg.Longitude
	l := &model.Listing{
		Title:       title,
		Description: desc,
		Location:    "Suntec City, Singapore",
		Venue:       a.Cfg.DefaultVenue,
		Address:     a.Cfg.Address,
		Latitude:    &lat,
		Longitude:   &lng,
		ExternalURL: a.ResolveURL(adapter.LinkOf(s)),
		ImageURL:    a.ResolveURL(adapter.ImageOf(s)),
		Source:      "scraped",
		ScrapedFrom: string(model.SourceSuntecCity),
	}

	// 日期常见 "Till 31 Dec" 促销写法，ParseDate已兼容
	dateText := adapter.TextOf(s, "time", ".event-date", ".date", ".validity")
	l.Date = normalize.ParseDate(dateText, time.Now())
	l.Time = normalize.ParseClock(dateText)

	l.CategorySlug = a.categorize(title, desc, page)
	l.TagSlugs = append(l.TagSlugs, "suntec-city", "shopping", "convention")
	l.PriceInfo = normalize.ExtractPrice(desc)
	l.AgeRestrictions = normalize.ExtractAgeRestriction(desc)
	if l.Description == "" {
		l.Description = fmt.Sprintf("%s at Suntec City, Singapore.", l.Title)
	}
	return l
}

// categorize 促销页归购物，会展页归商务，其余按文本推断
func (a *Adapter) categorize(title, desc, page string) string {
	lower := strings.ToLower(page)
	if strings.Contains(lower, "promotion") {
		return "general"
	}
	if strings.Contains(lower, "convention") {
		return "business"
	}
	return adapter.CategoryFromText(title, desc)
}
