package commclubs

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

// club 社区俱乐部信息（名称、路径、所属规划区、地址与坐标）
type club struct {
	Name    string
	Path    string
	Area    string
	Address string
	Lat     float64
	Lng     float64
}

// clubs 覆盖全岛主要社区俱乐部
var clubs = []club{
	{"Ang Mo Kio Community Club", "/ang-mo-kio-cc", "Ang Mo Kio", "795 Ang Mo Kio Ave 1, Singapore 569976", 1.3691, 103.8454},
	{"Bedok Community Club", "/bedok-cc", "Bedok", "850 New Upper Changi Rd, Singapore 467352", 1.3236, 103.9273},
	{"Bishan Community Club", "/bishan-cc", "Bishan", "51 Bishan St 13, Singapore 579799", 1.3506, 103.8480},
	{"Bukit Batok Community Club", "/bukit-batok-cc", "Bukit Batok", "21 Bukit Batok Central, Singapore 659959", 1.3490, 103.7498},
	{"Clementi Community Centre", "/clementi-cc", "Clementi", "220 Clementi Ave 4, Singapore 129880", 1.3142, 103.7649},
	{"Hougang Community Club", "/hougang-cc", "Hougang", "35 Hougang Ave 3, Singapore 538840", 1.3613, 103.8929},
	{"Jurong West Community Centre", "/jurong-west-cc", "Jurong West", "20 Jurong West St 93, Singapore 648965", 1.3404, 103.7090},
	{"Pasir Ris East Community Club", "/pasir-ris-east-cc", "Pasir Ris", "1 Pasir Ris Dr 4, Singapore 519457", 1.3721, 103.9474},
	{"Sengkang Community Club", "/sengkang-cc", "Sengkang", "2 Sengkang Square, Singapore 545025", 1.3868, 103.8947},
	{"Tampines East Community Club", "/tampines-east-cc", "Tampines", "10 Tampines St 23, Singapore 529341", 1.3496, 103.9568},
	{"Toa Payoh Central Community Club", "/toa-payoh-central-cc", "Toa Payoh", "93 Toa Payoh Central, Singapore 319194", 1.3343, 103.8563},
	{"Woodlands Community Club", "/woodlands-cc", "Woodlands", "1 Woodlands St 81, Singapore 738526", 1.4302, 103.7890},
	{"Yishun Community Centre", "/yishun-cc", "Yishun", "51 Yishun Ave 11, Singapore 768867", 1.4231, 103.8298},
}

// pageSuffixes 每个俱乐部尝试的活动页路径（命中一个即停）
var pageSuffixes = []string{
	"/events/",
	"/programmes/",
	"/activities/",
	"/classes/",
	"/happenings/",
	"",
}

var cardSelectors = []string{
	".event-card",
	".programme-card",
	".activity-card",
	".listing-item",
	"article",
	".card",
}

type Adapter struct {
	adapter.Base
}

func init() {
	adapter.Register(model.SourceCommClubs, func(cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) interfaces.SourceAdapter {
		return &Adapter{Base: adapter.NewBase(string(model.SourceCommClubs), cfg, scraping, logger)}
	})
}

func (a *Adapter) GetName() string {
	return string(model.SourceCommClubs)
}

func (a *Adapter) GetHost() string {
	return a.Host()
}

// Scrape 逐俱乐部抓取，上限按俱乐部数均分
func (a *Adapter) Scrape(ctx context.Context, maxEvents int) ([]*model.Listing, error) {
	perClub := maxEvents / len(clubs)
	if perClub < 1 {
		perClub = 1
	}

	var listings []*model.Listing
	for _, c := range clubs {
		if len(listings) >= maxEvents {
			break
		}
		clubListings, err := a.scrapeClub(ctx, c, perClub)
		if err != nil {
			a.Logger.WithError(err).WithField("club", c.Name).Warn("俱乐部抓取失败，跳过")
			if ctx.Err() != nil {
				return listings, ctx.Err()
			}
			continue
		}
		listings = append(listings, clubListings...)
	}

	if len(listings) > maxEvents {
		listings = listings[:maxEvents]
	}
	a.Logger.WithField("count", len(listings)).Info("社区俱乐部抓取完成")
	return listings, nil
}

func (a *Adapter) scrapeClub(ctx context.Context, c club, limit int) ([]*model.Listing, error) {
	var lastErr error
	for _, suffix := range pageSuffixes {
		pageURL := a.ResolveURL(c.Path + suffix)
		doc, err := a.Client.GetDocument(ctx, pageURL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		cards := adapter.FirstMatch(doc, cardSelectors)
		if cards == nil {
			continue
		}

		var listings []*model.Listing
		seen := make(map[string]bool)
		cards.Each(func(_ int, s *goquery.Selection) {
			if len(listings) >= limit {
				return
			}
			l := a.parseCard(s, c)
			if l == nil || seen[l.Title] {
				return
			}
			seen[l.Title] = true
			listings = append(listings, l)
		})
		if len(listings) > 0 {
			return listings, nil
		}
	}
	return nil, lastErr
}

func (a *Adapter) parseCard(s *goquery.Selection, c club) *model.Listing {
	title := adapter.TextOf(s, "h1", "h2", "h3", "h4", ".card-title", ".title", "a")
	if title == "" {
		return nil
	}

	desc := adapter.TextOf(s, "p", ".card-description", ".description")
	lat, lng := c.Lat, c.Lng
	l := &model.Listing{
		Title:       title,
		Description: desc,
		Location:    c.Area + ", Singapore",
		Venue:       c.Name,
		Address:     c.Address,
		Latitude:    &lat,
		Longitude:   &lng,
		ExternalURL: a.ResolveURL(adapter.LinkOf(s)),
		ImageURL:    a.ResolveURL(adapter.ImageOf(s)),
		Source:      "scraped",
		ScrapedFrom: string(model.SourceCommClubs),
	}

	// 社区活动常见周期性写法（"Every Saturday"），取下一次发生日
	dateText := adapter.TextOf(s, "time", ".event-date", ".date", ".schedule")
	l.Date = normalize.ParseDate(dateText, time.Now())
	l.Time = normalize.ParseClock(dateText)

	l.CategorySlug = adapter.CategoryFromText(title, desc)
	l.TagSlugs = append(l.TagSlugs, "community", "grassroots", normalize.Slugify(c.Area))
	l.PriceInfo = normalize.ExtractPrice(desc)
	l.AgeRestrictions = normalize.ExtractAgeRestriction(desc)
	if l.Description == "" {
		l.Description = fmt.Sprintf("%s at %s. Organised for %s residents.", l.Title, c.Name, c.Area)
	}
	// 标题含俱乐部名时去重前缀（"Bedok CC: Yoga Class"）
	if idx := strings.Index(l.Title, ": "); idx > 0 && strings.Contains(strings.ToLower(l.Title[:idx]), "cc") {
		l.Title = strings.TrimSpace(l.Title[idx+2:])
	}
	return l
}
