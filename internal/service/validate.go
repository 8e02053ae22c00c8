package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"EventScout/internal/geo"
	"EventScout/internal/model"
	"EventScout/internal/normalize"
)

// 字段长度上限（events表schema约束）
const (
	maxTitleLen     = 255
	minTitleLen     = 3
	maxDescLen      = 2000
	maxShortDescLen = 500
	maxPastDays     = 1
	maxFutureDays   = 730
)

// Validator 活动数据校验器（先修整字段再校验，不满足硬性条件的丢弃）
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Sanitize 入库前字段修整（清洗、截断、补默认值）
func (v *Validator) Sanitize(l *model.Listing) {
	l.Title = normalize.Truncate(normalize.CleanText(l.Title), maxTitleLen)
	l.Description = normalize.Truncate(normalize.CleanText(l.Description), maxDescLen)
	l.ShortDescription = normalize.Truncate(normalize.CleanText(l.ShortDescription), maxShortDescLen)
	l.Venue = normalize.CleanText(l.Venue)
	l.Address = normalize.CleanText(l.Address)
	l.Location = normalize.CleanText(l.Location)

	if l.ShortDescription == "" && l.Description != "" {
		l.ShortDescription = normalize.Truncate(l.Description, maxShortDescLen)
	}
	if !model.IsValidCategory(l.CategorySlug) {
		l.CategorySlug = "general"
	}

	// 越界坐标视为来源噪音：清掉坐标，归属改由位置文本判断
	if l.Latitude != nil && l.Longitude != nil && !geo.IsWithinSingapore(*l.Latitude, *l.Longitude) {
		l.Latitude = nil
		l.Longitude = nil
	}
}

// Check 硬性校验（返回nil表示通过，否则为丢弃原因）
func (v *Validator) Check(l *model.Listing, now time.Time) error {
	if len(strings.TrimSpace(l.Title)) < minTitleLen {
		return fmt.Errorf("标题过短（不足%d字符）", minTitleLen)
	}
	if l.Date == nil {
		return fmt.Errorf("缺少活动日期")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	earliest := today.AddDate(0, 0, -maxPastDays)
	latest := today.AddDate(0, 0, maxFutureDays)
	if l.Date.Before(earliest) {
		return fmt.Errorf("活动日期%s已过期", l.DateString())
	}
	if l.Date.After(latest) {
		return fmt.Errorf("活动日期%s过于遥远", l.DateString())
	}

	// 位置校验：坐标在境内即通过，否则看文本是否含新加坡地名（文本为空同样不通过）
	inBox := l.Latitude != nil && l.Longitude != nil && geo.IsWithinSingapore(*l.Latitude, *l.Longitude)
	if !inBox {
		combined := l.Location + " " + l.Venue + " " + l.Address
		if !geo.MentionsSingapore(combined) {
			return fmt.Errorf("位置信息未指向新加坡")
		}
	}

	// 结构化校验（标签格式等）
	if err := v.validate.Struct(l); err != nil {
		return fmt.Errorf("结构化校验失败: %w", err)
	}
	return nil
}
