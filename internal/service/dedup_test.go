package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"EventScout/internal/model"
)

// fakeSink 测试用内存实现
type fakeSink struct {
	mu            sync.Mutex
	saved         []*model.Listing
	existing      []string
	runs          []*model.ScrapeRun
	findErr       error
	saveErr       error
	deletedCount  int64
	archivedCount int64
}

func (f *fakeSink) SaveListings(_ context.Context, listings []*model.Listing, _ string) (int, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, nil, f.saveErr
	}
	f.saved = append(f.saved, listings...)
	return len(listings), nil, nil
}

func (f *fakeSink) FindSimilarTitles(_ context.Context, _ time.Time, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.existing, nil
}

func (f *fakeSink) RecordRun(_ context.Context, run *model.ScrapeRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeSink) DeleteUnapprovedBefore(_ context.Context, _ time.Time) (int64, error) {
	return f.deletedCount, nil
}

func (f *fakeSink) DeactivateDatedBefore(_ context.Context, _ time.Time) (int64, error) {
	return f.archivedCount, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestIsDuplicateFingerprint(t *testing.T) {
	d := NewDeduplicator(&fakeSink{}, quietLogger())
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	l := &model.Listing{Title: "Jazz Night", Date: &date, Venue: "The Promontory"}

	assert.False(t, d.IsDuplicate(context.Background(), l))
	assert.True(t, d.IsDuplicate(context.Background(), l))
}

func TestIsDuplicateSimilarTitleInStore(t *testing.T) {
	sink := &fakeSink{existing: []string{"Singapore Night Festival"}}
	d := NewDeduplicator(sink, quietLogger())
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	dup := &model.Listing{Title: "Singapore Night Festival 2026", Date: &date}
	assert.True(t, d.IsDuplicate(context.Background(), dup))

	novel := &model.Listing{Title: "Completely Different Expo", Date: &date}
	assert.False(t, d.IsDuplicate(context.Background(), novel))
}

func TestIsDuplicateSinkErrorTreatedAsNovel(t *testing.T) {
	sink := &fakeSink{findErr: errors.New("db down")}
	d := NewDeduplicator(sink, quietLogger())
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	l := &model.Listing{Title: "Jazz Night", Date: &date}
	assert.False(t, d.IsDuplicate(context.Background(), l))
}

func TestIsDuplicateConcurrentSources(t *testing.T) {
	// 同轮多源goroutine共享一个去重器，指纹集合必须并发安全
	d := NewDeduplicator(&fakeSink{}, quietLogger())
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	var dupCount int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l := &model.Listing{Title: "Shared Festival", Date: &date, Venue: "Padang"}
				if d.IsDuplicate(context.Background(), l) {
					atomic.AddInt64(&dupCount, 1)
				}
			}
		}()
	}
	wg.Wait()

	// 同一指纹400次判定里恰有1次判为新
	assert.EqualValues(t, 8*50-1, dupCount)
}

func TestTitleSimilarity(t *testing.T) {
	assert.GreaterOrEqual(t, TitleSimilarity("Singapore Night Festival 2026", "Singapore Night Festival"), similarityThreshold)
	assert.GreaterOrEqual(t, TitleSimilarity("jazz night", "Jazz Night"), 1.0)
	assert.Less(t, TitleSimilarity("Jazz Night", "Rock Night"), similarityThreshold)
	assert.Less(t, TitleSimilarity("Art Exhibition", "Food Carnival"), similarityThreshold)
}
