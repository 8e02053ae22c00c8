package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SourceType 数据源类型枚举
type SourceType string

const (
	SourceVisitSingapore SourceType = "visitsingapore"
	SourceEventbrite     SourceType = "eventbrite"
	SourceMarinaBaySands SourceType = "marinabaysands"
	SourceSuntecCity     SourceType = "sunteccity"
	SourceCommClubs      SourceType = "commclubs"
)

// Clock 只含时分的时刻（活动开始/结束时间，与日期分开存储）
type Clock struct {
	Hour   int
	Minute int
}

func NewClock(hour, minute int) *Clock {
	return &Clock{Hour: hour, Minute: minute}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalJSON 序列化为 "HH:MM" 字符串
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Listing 流经处理管道的统一活动记录（各采集器抹平站点差异后的产物）
type Listing struct {
	Title            string     `json:"title" validate:"required,max=255"`
	Description      string     `json:"description,omitempty"`
	ShortDescription string     `json:"short_description,omitempty"`
	Date             *time.Time `json:"date,omitempty"`
	Time             *Clock     `json:"time,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	EndTime          *Clock     `json:"end_time,omitempty"`
	Location         string     `json:"location"`
	Venue            string     `json:"venue,omitempty"`
	Address          string     `json:"address,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	AgeRestrictions  string     `json:"age_restrictions,omitempty"`
	PriceInfo        string     `json:"price_info,omitempty"`
	ExternalURL      string     `json:"external_url,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	CategorySlug     string     `json:"category_slug" validate:"required"`
	TagSlugs         []string   `json:"tag_slugs,omitempty" validate:"max=10,dive,max=50"`
	Source           string     `json:"source"`
	ScrapedFrom      string     `json:"scraped_from"`
	ExternalID       string     `json:"external_id,omitempty"`
}

// Fingerprint 按 title|date|time|venue|address 生成去重指纹
func (l *Listing) Fingerprint() string {
	content := fmt.Sprintf("%s|%s|%s|%s|%s",
		l.Title, l.DateString(), l.TimeString(), l.Venue, l.Address)
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DateString 日期的规范字符串（无日期返回空串，用于指纹与外部ID）
func (l *Listing) DateString() string {
	if l.Date == nil {
		return ""
	}
	return l.Date.Format("2006-01-02")
}

func (l *Listing) TimeString() string {
	if l.Time == nil {
		return ""
	}
	return l.Time.String()
}
