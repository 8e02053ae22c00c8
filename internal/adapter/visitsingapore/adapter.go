package visitsingapore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"EventScout/internal/adapter"
	"EventScout/internal/config"
	"EventScout/internal/interfaces"
	"EventScout/internal/model"
	"EventScout/internal/normalize"
)

// eventPages 官方站的活动栏目页
var eventPages = []string{
	"/see-do-singapore/events/",
	"/festivals-events-singapore/",
	"/see-do-singapore/arts-design/",
	"/see-do-singapore/entertainment/concerts-gigs/",
	"/see-do-singapore/nightlife/",
	"/see-do-singapore/food-drink/",
}

var cardSelectors = []string{
	".event-card",
	".card--event",
	".listing-card",
	".content-card",
	"article.card",
	`[class*="eventCard"]`,
}

// 兜底：class含这些关键词的容器视为活动卡片
var cardClassKeywords = []string{"event", "card", "listing", "tile"}

// 地址形如 "8 Raffles Avenue, Singapore 039802"
var addressRe = regexp.MustCompile(`\d+[A-Za-z]?\s+[A-Za-z' ]+(?:Road|Rd|Street|St|Avenue|Ave|Drive|Dr|Lane|Ln|Boulevard|Blvd|Walk|Way|Crescent|Place|Quay|Bridge)\b[^,]*(?:,\s*Singapore(?:\s*\d{6})?)?`)

type Adapter struct {
	adapter.Base
}

func init() {
	adapter.Register(model.SourceVisitSingapore, func(cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) interfaces.SourceAdapter {
		return &Adapter{Base: adapter.NewBase(string(model.SourceVisitSingapore), cfg, scraping, logger)}
	})
}

func (a *Adapter) GetName() string {
	return string(model.SourceVisitSingapore)
}

func (a *Adapter) GetHost() string {
	return a.Host()
}

// Scrape 遍历各栏目页抓取活动
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
			cards = adapter.FindByClassKeyword(doc, cardClassKeywords)
		}
		cards.Each(func(_ int, s *goquery.Selection) {
			if len(listings) >= maxEvents {
				return
			}
			l := a.parseCard(s)
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

func (a *Adapter) parseCard(s *goquery.Selection) *model.Listing {
	title := adapter.TextOf(s, "h1", "h2", "h3", "h4", ".card-title", ".title", "a")
	if title == "" {
		return nil
	}

	desc := adapter.TextOf(s, "p", ".card-description", ".description", ".summary")
	l := &model.Listing{
		Title:       title,
		Description: desc,
		Location:    "Singapore",
		ExternalURL: a.ResolveURL(adapter.LinkOf(s)),
		ImageURL:    a.ResolveURL(adapter.ImageOf(s)),
		Source:      "scraped",
		ScrapedFrom: string(model.SourceVisitSingapore),
	}

	dateText := adapter.TextOf(s, "time", ".event-date", ".date", ".card-date")
	l.Date = normalize.ParseDate(dateText, time.Now())
	l.Time = normalize.ParseClock(dateText)

	venue := adapter.TextOf(s, ".venue", ".location", ".card-location")
	if venue != "" {
		l.Venue = venue
	}
	// 地址从场馆文本或描述中按道路格式匹配
	for _, text := range []string{venue, desc} {
		if m := addressRe.FindString(text); m != "" {
			l.Address = normalize.CleanText(m)
			break
		}
	}

	l.CategorySlug = adapter.CategoryFromText(l.Title, l.Description)
	l.TagSlugs = append(l.TagSlugs, "tourism", "official")
	l.PriceInfo = normalize.ExtractPrice(desc)
	l.AgeRestrictions = normalize.ExtractAgeRestriction(desc)
	if l.Description == "" {
		l.Description = fmt.Sprintf("%s - featured on Singapore's official tourism site.", l.Title)
	}
	return l
}
