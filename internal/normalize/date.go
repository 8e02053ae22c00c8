package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 带年份的日期格式（按命中率排序）
var dateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
}

// 不带年份的日期格式（取当前年，已过去则顺延到下一年）
var dateLayoutsNoYear = []string{
	"2 January",
	"2 Jan",
	"January 2",
	"Jan 2",
	"02/01",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	ordinalRe      = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)
	datePrefixRe   = regexp.MustCompile(`(?i)^(till|until|from|starts?|on)\s+`)
	everyWeekRe    = regexp.MustCompile(`(?i)(?:every|weekly on)\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)s?`)
	inDaysRe       = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s+days?\b`)
	dateRangeSepRe = regexp.MustCompile(`(?:\s*[-–]\s*|\s+to\s+)`)
)

// ParseDate 解析日期文本（支持相对日期、星期几、周期性及多种常见格式）
// 失败返回 nil（调用方视为缺失，不中断流程）
func ParseDate(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(CleanText(text))
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	// 1. 相对日期
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch lower {
	case "today", "tonight":
		return &today
	case "tomorrow":
		d := today.AddDate(0, 0, 1)
		return &d
	}
	if strings.Contains(lower, "next week") {
		d := today.AddDate(0, 0, 7)
		return &d
	}
	if m := inDaysRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		d := today.AddDate(0, 0, n)
		return &d
	}

	// 2. 周期性活动（"every friday" / "weekly on saturday"）取下一次发生日
	if m := everyWeekRe.FindStringSubmatch(lower); m != nil {
		d := NextWeekday(today, weekdays[m[1]])
		return &d
	}

	// 3. 纯星期几（"Friday"）取本周或下周的该日
	if wd, ok := weekdays[lower]; ok {
		d := NextWeekday(today, wd)
		return &d
	}

	// 4. 去掉前缀词与序数词后缀（"Till 31 Dec" / "1st June"）
	text = datePrefixRe.ReplaceAllString(text, "")
	text = ordinalRe.ReplaceAllString(text, "$1")

	// 5. 日期范围取起始（"1 Jun - 30 Jun"）
	if parts := dateRangeSepRe.Split(text, 2); len(parts) == 2 && parts[0] != "" {
		if d := parseExact(strings.TrimSpace(parts[0]), today); d != nil {
			return d
		}
	}

	if d := parseExact(text, today); d != nil {
		return d
	}

	// 6. 整体解析失败时从文本中抽取内嵌日期（"Sat, 20 Jun 2026 7:00 PM"）
	for _, re := range embeddedDateRes {
		if m := re.FindString(text); m != "" {
			if d := parseExact(strings.ReplaceAll(m, ",", ""), today); d != nil {
				return d
			}
		}
	}
	return nil
}

var embeddedDateRes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}\s+[A-Za-z]{3,9},?\s+\d{4}\b`),
	regexp.MustCompile(`\b[A-Za-z]{3,9}\s+\d{1,2},?\s+\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}\s+[A-Za-z]{3,9}\b`),
}

func parseExact(text string, today time.Time) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, today.Location())
			return &d
		}
	}
	// 无年份格式：取当年，已过去则顺延一年
	for _, layout := range dateLayoutsNoYear {
		if t, err := time.Parse(layout, text); err == nil {
			d := time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, today.Location())
			if d.Before(today) {
				d = d.AddDate(1, 0, 0)
			}
			return &d
		}
	}
	return nil
}

// NextWeekday 返回 from 之后（含当日）最近的指定星期几
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}
