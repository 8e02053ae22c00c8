package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"EventScout/internal/geo"
	"EventScout/internal/interfaces"
	"EventScout/internal/model"
)

// categorySynonyms 采集侧分类别名 → 标准分类slug
var categorySynonyms = map[string]string{
	"music":         "concerts",
	"art":           "exhibitions",
	"arts":          "exhibitions",
	"dining":        "food",
	"fitness":       "sports",
	"health":        "workshops",
	"education":     "workshops",
	"networking":    "business",
	"conference":    "business",
	"entertainment": "general",
	"shopping":      "general",
}

// defaultTimes 分类默认开始时间（抓取不到时刻时兜底）
var defaultTimes = map[string]*model.Clock{
	"concerts":  model.NewClock(20, 0),
	"theatre":   model.NewClock(20, 0),
	"nightlife": model.NewClock(22, 0),
	"business":  model.NewClock(9, 0),
	"workshops": model.NewClock(14, 0),
	"family":    model.NewClock(10, 0),
	"sports":    model.NewClock(18, 0),
	"food":      model.NewClock(19, 0),
}

var fallbackTime = model.NewClock(19, 0)

const (
	maxTags   = 10
	maxTagLen = 50
	extIDLen  = 16
)

var tagSlugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Enricher 数据补全器（地理编码、区域归属、分类标准化、标签推断）
type Enricher struct {
	geocoder interfaces.Geocoder
	logger   *logrus.Entry
}

func NewEnricher(geocoder interfaces.Geocoder, logger *logrus.Logger) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		logger:   logger.WithField("component", "enrich"),
	}
}

// Enrich 按固定顺序补全活动字段（各步骤失败不中断，尽力而为）
func (e *Enricher) Enrich(ctx context.Context, l *model.Listing) {
	// 1. 地理编码（仅缺坐标且有地址时调用）
	if l.Latitude == nil && l.Longitude == nil && l.Address != "" && e.geocoder != nil {
		if lat, lng, ok := e.geocoder.Geocode(ctx, l.Address); ok {
			l.Latitude, l.Longitude = &lat, &lng
		}
	}
	// 已有坐标但越界时只清空坐标，保留其它字段
	if l.Latitude != nil && l.Longitude != nil && !geo.IsWithinSingapore(*l.Latitude, *l.Longitude) {
		l.Latitude, l.Longitude = nil, nil
	}

	// 2. 区域归属（位置文本提升为 "<区域>, Singapore"）
	e.liftLocation(l)

	// 3. 分类别名标准化
	if std, ok := categorySynonyms[l.CategorySlug]; ok {
		l.CategorySlug = std
	}
	if !model.IsValidCategory(l.CategorySlug) {
		l.CategorySlug = "general"
	}

	// 4. 标签推断
	l.TagSlugs = e.inferTags(l)

	// 5. 缺时刻时按分类兜底
	if l.Time == nil {
		if t, ok := defaultTimes[l.CategorySlug]; ok {
			l.Time = t
		} else {
			l.Time = fallbackTime
		}
	}

	// 6. 外部ID（源内稳定标识，重复抓取同一活动时不变）
	if l.ExternalID == "" {
		l.ExternalID = ExternalID(l)
	}
}

// liftLocation 位置文本标准化：能定位到区域时写 "<区域>, Singapore"
func (e *Enricher) liftLocation(l *model.Listing) {
	area := ""
	if l.Address != "" {
		area = geo.AreaForAddress(l.Address)
	}
	if area == "" && l.Location != "" {
		area = geo.AreaForAddress(l.Location)
	}
	if area == "" && l.Latitude != nil && l.Longitude != nil {
		area = geo.NearestArea(*l.Latitude, *l.Longitude)
	}

	if area != "" {
		l.Location = area + ", Singapore"
	} else if l.Location == "" {
		l.Location = "Singapore"
	} else if !strings.Contains(strings.ToLower(l.Location), "singapore") {
		l.Location += ", Singapore"
	}
}

// inferTags 从时间与文本推断标签（保序去重，格式不合法的丢弃）
func (e *Enricher) inferTags(l *model.Listing) []string {
	tags := append([]string{}, l.TagSlugs...)

	// 时段标签
	if l.Time != nil {
		switch {
		case l.Time.Hour >= 6 && l.Time.Hour < 12:
			tags = append(tags, "morning")
		case l.Time.Hour >= 12 && l.Time.Hour < 17:
			tags = append(tags, "afternoon")
		case l.Time.Hour >= 17 && l.Time.Hour < 21:
			tags = append(tags, "evening")
		default:
			tags = append(tags, "night")
		}
	}

	// 工作日/周末标签
	if l.Date != nil {
		if wd := l.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			tags = append(tags, "weekend")
		} else {
			tags = append(tags, "weekday")
		}
	}

	// 文本关键词标签
	combined := strings.ToLower(l.Title + " " + l.Description + " " + l.PriceInfo + " " + l.Venue)
	for _, kt := range keywordTags {
		for _, kw := range kt.Keywords {
			if strings.Contains(combined, kw) {
				tags = append(tags, kt.Tag)
				break
			}
		}
	}

	// 去重+格式校验+数量上限
	seen := make(map[string]bool)
	out := tags[:0]
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || len(tag) > maxTagLen || seen[tag] || !tagSlugRe.MatchString(tag) {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) >= maxTags {
			break
		}
	}
	return out
}

var keywordTags = []struct {
	Tag      string
	Keywords []string
}{
	{"free", []string{"free", "complimentary", "no charge"}},
	{"premium", []string{"premium", "vip", "exclusive"}},
	{"shopping-mall", []string{"mall", "shopping"}},
	{"hotel", []string{"hotel", "resort"}},
	{"community-center", []string{"community", " cc "}},
}

// ExternalID 源内稳定标识（同源同活动重复抓取时保持一致）
func ExternalID(l *model.Listing) string {
	raw := fmt.Sprintf("%s|%s|%s|%s",
		l.ScrapedFrom, strings.ToLower(strings.TrimSpace(l.Title)), l.DateString(), strings.ToLower(l.Venue))
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])[:extIDLen]
}
