package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"EventScout/internal/model"
)

// 测试库用内存sqlite，建表语句手写（模型里的postgres默认值sqlite不认）
var testSchema = []string{
	`CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		short_description TEXT,
		date DATE,
		time TEXT,
		end_date DATE,
		end_time TEXT,
		location TEXT,
		venue TEXT,
		address TEXT,
		latitude NUMERIC,
		longitude NUMERIC,
		age_restrictions TEXT,
		price_info TEXT,
		external_url TEXT,
		image_url TEXT,
		category_id INTEGER NOT NULL,
		source TEXT DEFAULT 'scraped',
		scraped_from TEXT,
		external_id TEXT,
		last_scraped TIMESTAMP,
		is_approved BOOLEAN DEFAULT false,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE event_tags (
		event_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (event_id, tag_id)
	)`,
	`CREATE TABLE scrape_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_uuid TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		success BOOLEAN DEFAULT false,
		total_found INTEGER DEFAULT 0,
		total_saved INTEGER DEFAULT 0,
		source_results TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		duration_seconds NUMERIC
	)`,
}

func newTestRepo(t *testing.T) *EventRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	repo := NewEventRepository(db, log)
	require.NoError(t, repo.EnsureSeedData(context.Background()))
	return repo
}

func repoListing(title, externalID string) *model.Listing {
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	return &model.Listing{
		Title:        title,
		Description:  "Test event description.",
		Location:     "Singapore",
		Venue:        "Test Venue",
		Date:         &date,
		CategorySlug: "general",
		Source:       "scraped",
		ScrapedFrom:  "eventbrite",
		ExternalID:   externalID,
	}
}

func TestSaveListingsCreatesEvents(t *testing.T) {
	repo := newTestRepo(t)

	saved, errs, err := repo.SaveListings(context.Background(),
		[]*model.Listing{repoListing("Event A", "a1"), repoListing("Event B", "b1")}, "eventbrite")
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Empty(t, errs)

	var count int64
	repo.db.Model(&model.Event{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestSaveListingsIsolatesFailingItem(t *testing.T) {
	repo := newTestRepo(t)
	// 去掉tags表让中间那条在关联标签时失败
	require.NoError(t, repo.db.Migrator().DropTable("tags"))

	bad := repoListing("Event Bad", "bad1")
	bad.TagSlugs = []string{"free"}
	listings := []*model.Listing{
		repoListing("Event A", "a1"),
		bad,
		repoListing("Event C", "c1"),
	}

	saved, errs, err := repo.SaveListings(context.Background(), listings, "eventbrite")
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Event Bad")

	// 失败条目的活动行也须随保存点回退，不留半写入
	var count int64
	repo.db.Model(&model.Event{}).Count(&count)
	assert.EqualValues(t, 2, count)
	var titles []string
	repo.db.Model(&model.Event{}).Order("title").Pluck("title", &titles)
	assert.Equal(t, []string{"Event A", "Event C"}, titles)
}

func TestSaveListingsUpsertsByExternalID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := repoListing("Original Title", "same-id")
	_, _, err := repo.SaveListings(ctx, []*model.Listing{first}, "eventbrite")
	require.NoError(t, err)

	// 人工审核状态在重复抓取时须保留
	require.NoError(t, repo.db.Model(&model.Event{}).
		Where("external_id = ?", "same-id").
		UpdateColumn("is_approved", true).Error)

	second := repoListing("Updated Title", "same-id")
	saved, errs, err := repo.SaveListings(ctx, []*model.Listing{second}, "eventbrite")
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.Empty(t, errs)

	var count int64
	repo.db.Model(&model.Event{}).Count(&count)
	assert.EqualValues(t, 1, count)

	var event model.Event
	require.NoError(t, repo.db.Where("external_id = ?", "same-id").First(&event).Error)
	assert.Equal(t, "Updated Title", event.Title)
	assert.True(t, event.IsApproved)
}

func TestRecordRun(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	run := &model.ScrapeRun{
		RunUUID:    "test-run-uuid",
		Kind:       "manual",
		Success:    true,
		TotalFound: 5,
		TotalSaved: 3,
		StartedAt:  now,
		FinishedAt: now,
	}
	require.NoError(t, repo.RecordRun(context.Background(), run))

	var stored model.ScrapeRun
	require.NoError(t, repo.db.Where("run_uuid = ?", "test-run-uuid").First(&stored).Error)
	assert.Equal(t, "manual", stored.Kind)
	assert.Equal(t, 5, stored.TotalFound)
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "Shopping Mall", tagName("shopping-mall"))
	assert.Equal(t, "Free", tagName("free"))
	assert.Equal(t, "Ang Mo Kio", tagName("ang-mo-kio"))
}
