package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"EventScout/internal/interfaces"
	"EventScout/internal/model"
)

// categoryNames 种子分类（slug → 展示名）
var categoryNames = map[string]string{
	"concerts":    "Concerts & Music",
	"sports":      "Sports & Fitness",
	"festivals":   "Festivals",
	"exhibitions": "Exhibitions & Arts",
	"workshops":   "Workshops & Classes",
	"family":      "Family & Kids",
	"food":        "Food & Drink",
	"nightlife":   "Nightlife",
	"theatre":     "Theatre & Shows",
	"business":    "Business & Networking",
	"general":     "General",
}

type EventRepository struct {
	db     *gorm.DB
	logger *logrus.Logger

	mu         sync.RWMutex
	categoryID map[string]uint64 // slug → id 缓存
}

func NewEventRepository(db *gorm.DB, logger *logrus.Logger) *EventRepository {
	return &EventRepository{
		db:         db,
		logger:     logger,
		categoryID: make(map[string]uint64),
	}
}

var _ interfaces.EventSink = (*EventRepository)(nil)

// EnsureSeedData 种子分类写入（幂等，启动时调用）
func (r *EventRepository) EnsureSeedData(ctx context.Context) error {
	for _, slug := range model.ValidCategories {
		cat := model.Category{Name: categoryNames[slug], Slug: slug}
		if err := r.db.WithContext(ctx).
			Where("slug = ?", slug).
			FirstOrCreate(&cat).Error; err != nil {
			return fmt.Errorf("写入种子分类%s失败: %w", slug, err)
		}
		r.mu.Lock()
		r.categoryID[slug] = cat.ID
		r.mu.Unlock()
	}
	return nil
}

// SaveListings 批量入库（单事务内逐条处理，单条失败回退到该条前的保存点并继续）
// 同源同external_id的记录视为重复抓取，更新字段而不新建
func (r *EventRepository) SaveListings(ctx context.Context, listings []*model.Listing, source string) (int, []string, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, nil, fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	saved := 0
	var errs []string
	now := time.Now()

	for i, l := range listings {
		// Postgres中语句失败会使整个事务进入中止态，逐条用保存点隔离
		sp := fmt.Sprintf("sp_%d", i)
		if err := tx.SavePoint(sp).Error; err != nil {
			tx.Rollback()
			return 0, errs, fmt.Errorf("创建保存点失败: %w", err)
		}
		if err := r.saveOne(tx, l, now); err != nil {
			if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
				tx.Rollback()
				return 0, errs, fmt.Errorf("回退保存点失败: %w", rbErr)
			}
			errs = append(errs, fmt.Sprintf("%s: %v", l.Title, err))
			continue
		}
		saved++
	}

	if err := tx.Commit().Error; err != nil {
		return 0, errs, fmt.Errorf("提交事务失败: %w", err)
	}
	r.logger.WithFields(logrus.Fields{
		"source": source,
		"saved":  saved,
		"errors": len(errs),
	}).Debug("批量入库完成")
	return saved, errs, nil
}

func (r *EventRepository) saveOne(tx *gorm.DB, l *model.Listing, now time.Time) error {
	categoryID, err := r.resolveCategory(tx, l.CategorySlug)
	if err != nil {
		return err
	}

	event := model.Event{
		Title:            l.Title,
		Description:      l.Description,
		ShortDescription: l.ShortDescription,
		Date:             l.Date,
		Time:             l.TimeString(),
		EndDate:          l.EndDate,
		Location:         l.Location,
		Venue:            l.Venue,
		Address:          l.Address,
		Latitude:         l.Latitude,
		Longitude:        l.Longitude,
		AgeRestrictions:  l.AgeRestrictions,
		PriceInfo:        l.PriceInfo,
		ExternalURL:      l.ExternalURL,
		ImageURL:         l.ImageURL,
		CategoryID:       categoryID,
		Source:           "scraped",
		ScrapedFrom:      l.ScrapedFrom,
		ExternalID:       l.ExternalID,
		LastScraped:      now,
	}
	if l.EndTime != nil {
		event.EndTime = l.EndTime.String()
	}

	// 1. 同源同外部ID → 重复抓取，更新原记录
	if l.ExternalID != "" {
		var existing model.Event
		err := tx.Where("scraped_from = ? AND external_id = ?", l.ScrapedFrom, l.ExternalID).
			First(&existing).Error
		if err == nil {
			event.ID = existing.ID
			event.IsApproved = existing.IsApproved
			event.IsActive = existing.IsActive
			event.CreatedAt = existing.CreatedAt
			if saveErr := tx.Model(&existing).Updates(map[string]interface{}{
				"title":        event.Title,
				"description":  event.Description,
				"date":         event.Date,
				"time":         event.Time,
				"location":     event.Location,
				"venue":        event.Venue,
				"address":      event.Address,
				"latitude":     event.Latitude,
				"longitude":    event.Longitude,
				"price_info":   event.PriceInfo,
				"external_url": event.ExternalURL,
				"image_url":    event.ImageURL,
				"category_id":  event.CategoryID,
				"last_scraped": now,
				"updated_at":   now,
			}).Error; saveErr != nil {
				return fmt.Errorf("更新已存在活动失败: %w", saveErr)
			}
			return r.attachTags(tx, &existing, l.TagSlugs)
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("查询已存在活动失败: %w", err)
		}
	}

	// 2. 新记录
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("保存活动失败: %w", err)
	}
	return r.attachTags(tx, &event, l.TagSlugs)
}

// attachTags 建立活动与标签的关联（标签不存在则创建）
func (r *EventRepository) attachTags(tx *gorm.DB, event *model.Event, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	tags := make([]model.Tag, 0, len(slugs))
	for _, slug := range slugs {
		tag := model.Tag{Name: tagName(slug), Slug: slug}
		if err := tx.Where("slug = ?", slug).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("写入标签%s失败: %w", slug, err)
		}
		tags = append(tags, tag)
	}
	if err := tx.Model(event).Association("Tags").Replace(&tags); err != nil {
		return fmt.Errorf("关联标签失败: %w", err)
	}
	return nil
}

// resolveCategory slug换分类ID（带缓存，未知slug回退general）
func (r *EventRepository) resolveCategory(tx *gorm.DB, slug string) (uint64, error) {
	if !model.IsValidCategory(slug) {
		slug = "general"
	}
	r.mu.RLock()
	id, ok := r.categoryID[slug]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	var cat model.Category
	if err := tx.Where("slug = ?", slug).First(&cat).Error; err != nil {
		return 0, fmt.Errorf("分类%s不存在: %w", slug, err)
	}
	r.mu.Lock()
	r.categoryID[slug] = cat.ID
	r.mu.Unlock()
	return cat.ID, nil
}

// FindSimilarTitles 同日期、标题含给定前缀的已入库标题（模糊去重回查）
func (r *EventRepository) FindSimilarTitles(ctx context.Context, date time.Time, titlePrefix string) ([]string, error) {
	var titles []string
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("date = ? AND lower(title) LIKE ?", date.Format("2006-01-02"), "%"+strings.ToLower(titlePrefix)+"%").
		Limit(50).
		Pluck("title", &titles).Error
	if err != nil {
		return nil, fmt.Errorf("查询相似标题失败: %w", err)
	}
	return titles, nil
}

// RecordRun 周期运行记录落库
func (r *EventRepository) RecordRun(ctx context.Context, run *model.ScrapeRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存周期记录失败: %w", err)
	}
	return nil
}

// DeleteUnapprovedBefore 删除早于cutoff创建且未审核的抓取记录
func (r *EventRepository) DeleteUnapprovedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("source = ? AND is_approved = ? AND created_at < ?", "scraped", false, cutoff).
		Delete(&model.Event{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除未审核记录失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeactivateDatedBefore 活动日期早于cutoff的记录置失效（保留数据）
func (r *EventRepository) DeactivateDatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("date < ? AND is_active = ?", cutoff.Format("2006-01-02"), true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("归档历史活动失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SourceStats 单个数据源的入库统计
type SourceStats struct {
	Source      string     `json:"source"`
	Total       int64      `json:"total"`
	Upcoming    int64      `json:"upcoming"`
	LastScraped *time.Time `json:"last_scraped"`
}

// Stats admin统计接口数据（总量、各源明细、最近周期）
func (r *EventRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	db := r.db.WithContext(ctx)

	var total, pending int64
	if err := db.Model(&model.Event{}).Where("source = ?", "scraped").Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计总量失败: %w", err)
	}
	if err := db.Model(&model.Event{}).
		Where("source = ? AND is_approved = ?", "scraped", false).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("统计待审核量失败: %w", err)
	}

	var sources []string
	if err := db.Model(&model.Event{}).
		Where("source = ?", "scraped").
		Distinct("scraped_from").
		Pluck("scraped_from", &sources).Error; err != nil {
		return nil, fmt.Errorf("统计数据源列表失败: %w", err)
	}

	today := time.Now().Format("2006-01-02")
	perSource := make([]SourceStats, 0, len(sources))
	for _, src := range sources {
		s := SourceStats{Source: src}
		db.Model(&model.Event{}).Where("scraped_from = ?", src).Count(&s.Total)
		db.Model(&model.Event{}).Where("scraped_from = ? AND date >= ?", src, today).Count(&s.Upcoming)
		var last model.Event
		if err := db.Where("scraped_from = ?", src).Order("last_scraped DESC").First(&last).Error; err == nil {
			t := last.LastScraped
			s.LastScraped = &t
		}
		perSource = append(perSource, s)
	}

	var recentRuns []model.ScrapeRun
	if err := db.Order("started_at DESC").Limit(10).Find(&recentRuns).Error; err != nil {
		return nil, fmt.Errorf("查询最近周期失败: %w", err)
	}

	return map[string]interface{}{
		"total_scraped":    total,
		"pending_approval": pending,
		"sources":          perSource,
		"recent_runs":      recentRuns,
	}, nil
}

// tagName slug转展示名（"shopping-mall" → "Shopping Mall"）
func tagName(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
