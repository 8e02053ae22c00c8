package adapter

import "strings"

// categoryKeywords 分类关键词（有序：越靠前优先级越高）
var categoryKeywords = []struct {
	Slug     string
	Keywords []string
}{
	{"concerts", []string{"concert", "music", "jazz", "live band", "gig", "orchestra", "symphony", "dj", "performance"}},
	{"sports", []string{"sport", "marathon", "run", "fitness", "yoga", "cycling", "swim", "tournament", "match"}},
	{"festivals", []string{"festival", "celebration", "carnival", "fiesta", "parade", "countdown"}},
	{"exhibitions", []string{"exhibition", "art", "gallery", "museum", "showcase", "display", "installation"}},
	{"workshops", []string{"workshop", "class", "course", "masterclass", "seminar", "training", "talk", "lecture"}},
	{"family", []string{"family", "kids", "children", "playground", "parent"}},
	{"food", []string{"food", "dining", "culinary", "restaurant", "tasting", "buffet", "brunch", "hawker"}},
	{"nightlife", []string{"nightlife", "party", "club", "bar", "rooftop", "late night"}},
	{"theatre", []string{"theatre", "theater", "musical", "play", "drama", "comedy", "stand-up"}},
	{"business", []string{"business", "networking", "conference", "summit", "expo", "forum", "startup"}},
}

// CategoryFromText 从标题+描述的关键词推断分类slug（无命中返回general）
func CategoryFromText(texts ...string) string {
	combined := strings.ToLower(strings.Join(texts, " "))
	for _, c := range categoryKeywords {
		for _, kw := range c.Keywords {
			if containsWord(combined, kw) {
				return c.Slug
			}
		}
	}
	return "general"
}

// containsWord 关键词须从词首匹配，词尾可带复数等后缀
// （避免"startup"这类词中子串误命中"art"）
func containsWord(text, kw string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		if i == 0 || !isWordChar(text[i-1]) {
			return true
		}
		start = i + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
