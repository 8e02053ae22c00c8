package service

import (
	"context"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"

	"EventScout/internal/interfaces"
	"EventScout/internal/model"
)

// 标题相似度阈值（达到即视为同一活动）
const similarityThreshold = 0.80

// 库内查询用的标题前缀长度
const titlePrefixLen = 20

// Deduplicator 去重器（本轮指纹集合 + 库内相似标题比对），单轮周期内使用
// 同轮各数据源的goroutine共用一个实例，指纹集合加锁保护
type Deduplicator struct {
	sink   interfaces.EventSink
	logger *logrus.Entry

	mu   sync.Mutex
	seen map[string]bool // 本轮已见指纹
}

func NewDeduplicator(sink interfaces.EventSink, logger *logrus.Logger) *Deduplicator {
	return &Deduplicator{
		sink:   sink,
		logger: logger.WithField("component", "dedup"),
		seen:   make(map[string]bool),
	}
}

// IsDuplicate 判断活动是否重复（同轮指纹命中或库内高相似标题命中）
// 库查询失败时按新活动处理，由数据库唯一约束兜底
func (d *Deduplicator) IsDuplicate(ctx context.Context, l *model.Listing) bool {
	// 1. 本轮指纹去重
	fp := l.Fingerprint()
	d.mu.Lock()
	if d.seen[fp] {
		d.mu.Unlock()
		return true
	}
	d.seen[fp] = true
	d.mu.Unlock()

	// 2. 库内相似标题去重（仅带日期的活动可比）
	if l.Date == nil || d.sink == nil {
		return false
	}
	prefix := titlePrefix(l.Title)
	if prefix == "" {
		return false
	}
	existing, err := d.sink.FindSimilarTitles(ctx, *l.Date, prefix)
	if err != nil {
		d.logger.WithError(err).Warn("库内相似标题查询失败，按新活动处理")
		return false
	}
	for _, title := range existing {
		if TitleSimilarity(l.Title, title) >= similarityThreshold {
			return true
		}
	}
	return false
}

// TitleSimilarity 标题相似度（基于编辑距离，0~1）
func TitleSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	// 编辑距离按rune计，长度也须按rune计
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func titlePrefix(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if len(t) > titlePrefixLen {
		t = t[:titlePrefixLen]
	}
	return t
}
