package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventScout/internal/adapter"
	"EventScout/internal/config"
	"EventScout/internal/interfaces"
	"EventScout/internal/model"
)

// stubAdapter 测试用采集器（可注入返回、错误或panic）
type stubAdapter struct {
	name     string
	listings []*model.Listing
	err      error
	panics   bool
	delay    time.Duration
	onStart  func()
	onEnd    func()
}

func (s *stubAdapter) GetName() string { return s.name }
func (s *stubAdapter) GetHost() string { return s.name + ".example.com" }
func (s *stubAdapter) MaxEvents() int  { return 100 }

func (s *stubAdapter) Scrape(ctx context.Context, maxEvents int) ([]*model.Listing, error) {
	if s.onStart != nil {
		s.onStart()
	}
	if s.onEnd != nil {
		defer s.onEnd()
	}
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.panics {
		panic("simulated crash")
	}
	if len(s.listings) > maxEvents {
		return s.listings[:maxEvents], s.err
	}
	return s.listings, s.err
}

func stubListing(title string, source string) *model.Listing {
	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return &model.Listing{
		Title:       title,
		Description: "Test description for " + title,
		Location:    "Singapore",
		Date:        &date,
		Source:      "scraped",
		ScrapedFrom: source,
	}
}

// registerStubs 注册一批测试数据源并返回对应配置
func registerStubs(stubs map[string]*stubAdapter) *config.Config {
	cfg := &config.Config{
		Scraping: config.ScrapingConfig{
			BatchSize:        50,
			MaxEventsDefault: 100,
			Concurrency:      3,
			SourceTimeout:    time.Minute,
			RequestsPerMin:   100,
			Delay:            time.Millisecond,
			Timeout:          time.Second,
		},
		Sources: make(map[string]config.SourceConfig),
	}
	for name, stub := range stubs {
		stub := stub
		adapter.Register(model.SourceType(name), func(_ *config.SourceConfig, _ *config.ScrapingConfig, _ *logrus.Logger) interfaces.SourceAdapter {
			return stub
		})
		cfg.Sources[name] = config.SourceConfig{BaseURL: "http://" + name + ".example.com", Enabled: true}
	}
	return cfg
}

func newTestOrchestrator(cfg *config.Config, sink interfaces.EventSink) *Orchestrator {
	logger := quietLogger()
	registry := adapter.NewSourceRegistry(cfg, logger)
	enricher := NewEnricher(nil, logger)
	return NewOrchestrator(cfg, registry, sink, enricher, logger)
}

func TestRunCycleCollectsAllResults(t *testing.T) {
	stubs := map[string]*stubAdapter{
		"stub-a": {name: "stub-a", listings: []*model.Listing{stubListing("Event Alpha", "stub-a")}},
		"stub-b": {name: "stub-b", listings: []*model.Listing{stubListing("Event Beta", "stub-b")}},
		"stub-c": {name: "stub-c", err: errors.New("site unreachable")},
		"stub-d": {name: "stub-d", panics: true},
		"stub-e": {name: "stub-e", listings: []*model.Listing{stubListing("Event Epsilon", "stub-e")}},
	}
	cfg := registerStubs(stubs)
	sink := &fakeSink{}
	o := newTestOrchestrator(cfg, sink)

	summary := o.RunCycle(context.Background(), "manual", nil)

	// 失败与panic的源也必须出现在结果中
	require.Len(t, summary.Results, 5)
	assert.True(t, summary.Results["stub-a"].Success)
	assert.False(t, summary.Results["stub-c"].Success)
	assert.NotEmpty(t, summary.Results["stub-c"].Errors)
	assert.False(t, summary.Results["stub-d"].Success)
	assert.Contains(t, summary.Results["stub-d"].Errors[0], "panic")

	assert.Equal(t, 3, summary.TotalEventsFound)
	assert.Equal(t, 3, summary.TotalEventsSaved)
	assert.Len(t, summary.SourcesSucceeded, 3)
	assert.Len(t, summary.SourcesFailed, 2)
	assert.NotEmpty(t, summary.RunUUID)

	// 周期结果落库
	require.Len(t, sink.runs, 1)
	assert.Equal(t, summary.RunUUID, sink.runs[0].RunUUID)
	assert.False(t, sink.runs[0].Success)
}

func TestRunCycleConcurrencyLimit(t *testing.T) {
	var inFlight, peak int64
	track := func() {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
				break
			}
		}
	}
	release := func() { atomic.AddInt64(&inFlight, -1) }

	stubs := make(map[string]*stubAdapter)
	for _, name := range []string{"conc-a", "conc-b", "conc-c", "conc-d", "conc-e"} {
		stubs[name] = &stubAdapter{name: name, delay: 50 * time.Millisecond, onStart: track, onEnd: release}
	}
	cfg := registerStubs(stubs)
	o := newTestOrchestrator(cfg, &fakeSink{})

	o.RunCycle(context.Background(), "manual", nil)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestRunCycleRespectsCaps(t *testing.T) {
	var listings []*model.Listing
	for i := 0; i < 20; i++ {
		listings = append(listings, stubListing("Capped Event "+string(rune('A'+i)), "cap-src"))
	}
	stubs := map[string]*stubAdapter{"cap-src": {name: "cap-src", listings: listings}}
	cfg := registerStubs(stubs)
	o := newTestOrchestrator(cfg, &fakeSink{})

	summary := o.RunCycle(context.Background(), "incremental", map[string]int{"cap-src": 5})
	assert.Equal(t, 5, summary.Results["cap-src"].EventsFound)
}

func TestRunSourceUnknown(t *testing.T) {
	cfg := registerStubs(map[string]*stubAdapter{})
	o := newTestOrchestrator(cfg, &fakeSink{})
	_, err := o.RunSource(context.Background(), "no-such-source", 0)
	assert.Error(t, err)
}

func TestTestSourceDoesNotPersist(t *testing.T) {
	stubs := map[string]*stubAdapter{
		"try-src": {name: "try-src", listings: []*model.Listing{
			stubListing("Trial Event One", "try-src"),
			stubListing("Trial Event Two", "try-src"),
		}},
	}
	cfg := registerStubs(stubs)
	sink := &fakeSink{}
	o := newTestOrchestrator(cfg, sink)

	result, err := o.TestSource(context.Background(), "try-src", 5)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.EventsFound)
	assert.Len(t, result.Listings, 2)
	assert.Empty(t, sink.saved)
	assert.Empty(t, sink.runs)
}

func TestRunCycleSequentialSharedDedup(t *testing.T) {
	// 两个源返回同一活动，周期内共享指纹集合应只入库一条
	shared := func(src string) []*model.Listing {
		l := stubListing("Cross Source Festival", src)
		l.Venue = "Padang"
		return []*model.Listing{l}
	}
	stubs := map[string]*stubAdapter{
		"seq-a": {name: "seq-a", listings: shared("seq-a")},
		"seq-b": {name: "seq-b", listings: shared("seq-b")},
	}
	cfg := registerStubs(stubs)
	sink := &fakeSink{}
	o := newTestOrchestrator(cfg, sink)

	summary := o.RunCycleSequential(context.Background(), "comprehensive", nil, 0)
	assert.Equal(t, 2, summary.TotalEventsFound)
	assert.Equal(t, 1, summary.TotalEventsSaved)
	assert.Len(t, sink.saved, 1)
}
