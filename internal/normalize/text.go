package normalize

import (
	"regexp"
	"strings"
)

var (
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`\s+`)
	punctRe = regexp.MustCompile(`([!?.]){2,}`)
	// 只过滤控制字符与零宽字符，非ASCII的正文字符（店名、分隔符等）保留
	ctrlRe       = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f\x{200b}-\x{200d}\x{feff}]`)
	htmlEntities = map[string]string{
		"&amp;":    "&",
		"&lt;":     "<",
		"&gt;":     ">",
		"&quot;":   `"`,
		"&#39;":    "'",
		"&apos;":   "'",
		"&nbsp;":   " ",
		"&ndash;":  "-",
		"&mdash;":  "-",
		"&hellip;": "...",
	}
)

// CleanText 清洗抓取文本：去HTML标签、还原实体、压缩空白、过滤不可见字符
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	// 1. 去HTML标签
	text = tagRe.ReplaceAllString(text, " ")
	// 2. 还原常见HTML实体
	for entity, repl := range htmlEntities {
		text = strings.ReplaceAll(text, entity, repl)
	}
	// 3. 不间断空格转普通空格，再过滤控制字符
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = ctrlRe.ReplaceAllString(text, "")
	// 4. 压缩连续标点与空白
	text = punctRe.ReplaceAllString(text, "$1")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate 截断文本到maxLen个字符（超长时保留 maxLen-3 再补省略号）
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return strings.TrimSpace(string(runes[:maxLen-3])) + "..."
}

// Slugify 文本转标签slug（小写、空白转连字符、去非法字符）
func Slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = spaceRe.ReplaceAllString(text, "-")
	var b strings.Builder
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
