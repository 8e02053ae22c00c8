package normalize

import (
	"regexp"
	"strings"
)

var (
	priceRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:S?\$|SGD\s*)\d+(?:\.\d{2})?(?:\s*(?:-|to)\s*(?:S?\$|SGD\s*)?\d+(?:\.\d{2})?)?`),
		regexp.MustCompile(`(?i)\bfrom\s+(?:S?\$|SGD\s*)\d+(?:\.\d{2})?`),
		regexp.MustCompile(`(?i)\b(free(?:\s+(?:admission|entry))?|complimentary|no charge)\b`),
	}
	// "+"不是单词字符，以"+"结尾的模式后面不能再接\b
	ageRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}\s*(?:years?|yrs?)?\s*(?:and|&)\s*(?:above|over|up)\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s*\+`),
		regexp.MustCompile(`(?i)\b(all ages|family friendly|adults only|R18|M18|PG13?|NC16)\b`),
	}
)

// ExtractPrice 从文本中提取价格信息（无匹配返回空串）
func ExtractPrice(text string) string {
	for _, re := range priceRe {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// ExtractAgeRestriction 从文本中提取年龄限制（无匹配返回空串）
func ExtractAgeRestriction(text string) string {
	for _, re := range ageRe {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
