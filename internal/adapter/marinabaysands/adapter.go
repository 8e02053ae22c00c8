package marinabaysands

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

// eventPages 滨海湾金沙官网的活动栏目页
var eventPages = []string{
	"/entertainment.html",
	"/entertainment/events.html",
	"/museum/exhibitions.html",
	"/shows.html",
	"/restaurants/events.html",
	"/whats-on.html",
}

var cardSelectors = []string{
	".event-card",
	".show-card",
	".card--entertainment",
	".listing-item",
	"article.card",
	`[class*="EventTile"]`,
}

// venueKeywords 场馆关键词映射（活动文本命中即定位到具体场馆）
var venueKeywords = []struct {
	Keyword string
	Venue   string
}{
	{"sands theatre", "Sands Theatre"},
	{"grand theatre", "Sands Grand Theatre"},
	{"artscience", "ArtScience Museum"},
	{"sands expo", "Sands Expo and Convention Centre"},
	{"convention centre", "Sands Expo and Convention Centre"},
	{"skypark", "SkyPark Observation Deck"},
	{"event plaza", "Event Plaza"},
	{"casino", "Marina Bay Sands Casino"},
}

// urlCategories URL路径关键词覆盖分类推断
var urlCategories = []struct {
	Keyword  string
	Category string
}{
	{"concert", "concerts"},
	{"show", "concerts"},
	{"exhibition", "exhibitions"},
	{"museum", "exhibitions"},
	{"dining", "food"},
	{"restaurant", "food"},
}

type Adapter struct {
	adapter.Base
}

func init() {
	adapter.Register(model.SourceMarinaBaySands, func(cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) interfaces.SourceAdapter {
		return &Adapter{Base: adapter.NewBase(string(model.SourceMarinaBaySands), cfg, scraping, logger)}
	})
}

func (a *Adapter) GetName() string {
	return string(model.SourceMarinaBaySands)
}

func (a *Adapter) GetHost() string {
	return a.Host()
}

// Scrape 单场馆源：所有活动共用固定地址与坐标
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
		Location:    "Marina Bay, Singapore",
		Venue:       a.Cfg.DefaultVenue,
		Address:     a.Cfg.Address,
		Latitude:    &lat,
		Longitude:   &lng,
		ExternalURL: a.ResolveURL(adapter.LinkOf(s)),
		ImageURL:    a.ResolveURL(adapter.ImageOf(s)),
		Source:      "scraped",
		ScrapedFrom: string(model.SourceMarinaBaySands),
	}

	// 文本命中场馆关键词时替换为具体场馆
	combined := strings.ToLower(title + " " + desc)
	for _, vk := range venueKeywords {
		if strings.Contains(combined, vk.Keyword) {
			l.Venue = vk.Venue
			break
		}
	}

	dateText := adapter.TextOf(s, "time", ".event-date", ".date", ".show-date")
	l.Date = normalize.ParseDate(dateText, time.Now())
	l.Time = normalize.ParseClock(dateText)
	// 剧场演出的默认开演时间
	if l.Time == nil {
		l.Time = model.NewClock(20, 0)
	}

	l.CategorySlug = a.categorize(title, desc, page)
	l.TagSlugs = append(l.TagSlugs, "marina-bay", "premium", "integrated-resort")
	l.PriceInfo = normalize.ExtractPrice(desc)
	l.AgeRestrictions = normalize.ExtractAgeRestriction(desc)
	if l.Description == "" {
		l.Description = fmt.Sprintf("%s at Marina Bay Sands, Singapore.", l.Title)
	}
	return l
}

// categorize URL路径关键词覆盖，否则按文本推断
func (a *Adapter) categorize(title, desc, page string) string {
	lower := strings.ToLower(page)
	for _, uc := range urlCategories {
		if strings.Contains(lower, uc.Keyword) {
			return uc.Category
		}
	}
	return adapter.CategoryFromText(title, desc)
}
