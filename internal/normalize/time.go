package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"EventScout/internal/model"
)

var (
	timeRangeRe = regexp.MustCompile(`(?i)^(.+?)(?:\s*[-–]\s*|\s+to\s+).+$`)
	clockRe     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// ParseClock 解析时间文本（"7pm" / "19:00" / "7:30 PM - 10 PM" 取起始时刻）
// 失败返回 nil
func ParseClock(text string) *model.Clock {
	text = strings.TrimSpace(CleanText(text))
	if text == "" {
		return nil
	}

	// 时间范围取起始
	if m := timeRangeRe.FindStringSubmatch(text); m != nil {
		if c := parseSingleClock(m[1]); c != nil {
			return c
		}
	}
	return parseSingleClock(text)
}

// parseSingleClock 取文本中第一个可信的时刻（裸数字不算）
func parseSingleClock(text string) *model.Clock {
	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		hour, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		minute := 0
		if m[2] != "" {
			minute, err = strconv.Atoi(m[2])
			if err != nil {
				continue
			}
		}

		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		case "":
			// 无am/pm且无分钟的裸数字不可信（可能是日期的一部分）
			if m[2] == "" {
				continue
			}
		}

		if hour > 23 || minute > 59 {
			continue
		}
		return model.NewClock(hour, minute)
	}
	return nil
}
