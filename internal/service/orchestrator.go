package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"EventScout/internal/adapter"
	"EventScout/internal/config"
	"EventScout/internal/interfaces"
	"EventScout/internal/metrics"
	"EventScout/internal/model"
)

// Orchestrator 抓取编排器：并发调度各数据源，汇总周期结果并记录运行历史
type Orchestrator struct {
	cfg      *config.Config
	registry *adapter.SourceRegistry
	sink     interfaces.EventSink
	enricher *Enricher
	logger   *logrus.Logger
}

func NewOrchestrator(cfg *config.Config, registry *adapter.SourceRegistry, sink interfaces.EventSink, enricher *Enricher, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		sink:     sink,
		enricher: enricher,
		logger:   logger,
	}
}

// RunCycle 并发执行一轮抓取周期
// caps 为各源本轮抓取上限（nil或缺项时取配置默认），kind 标记周期类型（incremental/comprehensive/manual）
func (o *Orchestrator) RunCycle(ctx context.Context, kind string, caps map[string]int) *model.CycleSummary {
	return o.RunCycleWithID(ctx, uuid.NewString(), kind, caps)
}

// RunCycleWithID 同RunCycle，但由调用方指定本轮run_uuid（异步触发时先返回ID再执行）
func (o *Orchestrator) RunCycleWithID(ctx context.Context, runUUID, kind string, caps map[string]int) *model.CycleSummary {
	sources := o.registry.EnabledSources()
	summary := &model.CycleSummary{
		RunUUID:   runUUID,
		Kind:      kind,
		Results:   make(map[string]*model.ScrapeResult, len(sources)),
		StartTime: time.Now(),
	}
	o.logger.WithFields(logrus.Fields{
		"run_uuid": summary.RunUUID,
		"kind":     kind,
		"sources":  len(sources),
	}).Info("开始抓取周期")

	// 同轮所有源共享指纹集合（跨源重复只留一个）
	dedup := NewDeduplicator(o.sink, o.logger)
	processor := NewProcessor(o.sink, o.enricher, o.cfg.Scraping.BatchSize, o.logger)

	concurrency := o.cfg.Scraping.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, source := range sources {
		wg.Add(1)
		go func(source model.SourceType) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := o.runSourceOnce(ctx, source, caps, processor, dedup)
			mu.Lock()
			summary.Results[string(source)] = result
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	summary.EndTime = time.Now()
	summary.Aggregate()
	o.recordCycle(ctx, summary)
	o.logger.WithFields(logrus.Fields{
		"run_uuid":  summary.RunUUID,
		"found":     summary.TotalEventsFound,
		"saved":     summary.TotalEventsSaved,
		"succeeded": len(summary.SourcesSucceeded),
		"failed":    len(summary.SourcesFailed),
		"duration":  summary.DurationSeconds,
	}).Info("抓取周期结束")
	return summary
}

// RunCycleSequential 逐源顺序执行一轮抓取（全量周期用，源间停顿减轻目标站点压力）
func (o *Orchestrator) RunCycleSequential(ctx context.Context, kind string, caps map[string]int, delay time.Duration) *model.CycleSummary {
	sources := o.registry.EnabledSources()
	summary := &model.CycleSummary{
		RunUUID:   uuid.NewString(),
		Kind:      kind,
		Results:   make(map[string]*model.ScrapeResult, len(sources)),
		StartTime: time.Now(),
	}
	o.logger.WithFields(logrus.Fields{
		"run_uuid": summary.RunUUID,
		"kind":     kind,
	}).Info("开始顺序抓取周期")

	dedup := NewDeduplicator(o.sink, o.logger)
	processor := NewProcessor(o.sink, o.enricher, o.cfg.Scraping.BatchSize, o.logger)

	for i, source := range sources {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				o.logger.Warn("顺序抓取周期被取消")
				summary.Results[string(source)] = failedResult(source, ctx.Err())
				continue
			case <-time.After(delay):
			}
		}
		summary.Results[string(source)] = o.runSourceOnce(ctx, source, caps, processor, dedup)
	}

	summary.EndTime = time.Now()
	summary.Aggregate()
	o.recordCycle(ctx, summary)
	return summary
}

// RunSource 手动执行单个数据源的抓取入库
func (o *Orchestrator) RunSource(ctx context.Context, source model.SourceType, maxEvents int) (*model.ScrapeResult, error) {
	if _, ok := adapter.GetFactory(source); !ok {
		return nil, fmt.Errorf("未知数据源: %s", source)
	}
	dedup := NewDeduplicator(o.sink, o.logger)
	processor := NewProcessor(o.sink, o.enricher, o.cfg.Scraping.BatchSize, o.logger)

	caps := map[string]int{}
	if maxEvents > 0 {
		caps[string(source)] = maxEvents
	}
	return o.runSourceOnce(ctx, source, caps, processor, dedup), nil
}

// TestSource 试抓数据源（走完整抓取与补全流程，但不入库）
func (o *Orchestrator) TestSource(ctx context.Context, source model.SourceType, limit int) (*model.ScrapeResult, error) {
	adapterIns, err := o.registry.Create(source)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	result := &model.ScrapeResult{Source: string(source), StartTime: time.Now()}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Scraping.SourceTimeout)
	defer cancel()

	listings, err := adapterIns.Scrape(ctx, limit)
	result.EventsFound = len(listings)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	// 试抓也过校验与补全，便于核对字段质量
	validator := NewValidator()
	now := time.Now()
	for _, l := range listings {
		validator.Sanitize(l)
		if checkErr := validator.Check(l, now); checkErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", l.Title, checkErr))
			continue
		}
		o.enricher.Enrich(ctx, l)
		result.Listings = append(result.Listings, l)
	}

	result.Success = err == nil
	result.EndTime = time.Now()
	result.DurationSeconds = result.EndTime.Sub(result.StartTime).Seconds()
	return result, nil
}

// runSourceOnce 执行单源抓取入库（含panic恢复与单源硬超时）
func (o *Orchestrator) runSourceOnce(ctx context.Context, source model.SourceType, caps map[string]int, processor *Processor, dedup *Deduplicator) (result *model.ScrapeResult) {
	result = &model.ScrapeResult{Source: string(source), StartTime: time.Now()}
	metrics.ScrapersInFlight.Inc()
	defer func() {
		metrics.ScrapersInFlight.Dec()
		if r := recover(); r != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("采集器panic: %v", r))
			o.logger.WithFields(logrus.Fields{"source": source, "panic": r}).Error("采集器panic已恢复")
		}
		result.EndTime = time.Now()
		result.DurationSeconds = result.EndTime.Sub(result.StartTime).Seconds()
		metrics.RecordRun(string(source), result.Success, result.EventsFound, result.EventsSaved, result.DurationSeconds)
	}()

	adapterIns, err := o.registry.Create(source)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	maxEvents := o.cfg.MaxEventsFor(string(source))
	if caps != nil {
		if limit, ok := caps[string(source)]; ok && limit > 0 {
			maxEvents = limit
		}
	}

	srcCtx, cancel := context.WithTimeout(ctx, o.cfg.Scraping.SourceTimeout)
	defer cancel()

	listings, err := adapterIns.Scrape(srcCtx, maxEvents)
	result.EventsFound = len(listings)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		o.logger.WithError(err).WithField("source", source).Error("数据源抓取失败")
		// 已抓到的部分仍尝试入库
	}

	if len(listings) > 0 {
		saved, procErrs := processor.Process(srcCtx, listings, string(source), dedup)
		result.EventsSaved = saved
		result.Errors = append(result.Errors, procErrs...)
	}

	result.Success = err == nil
	return result
}

// recordCycle 周期结果落库（失败只记日志，不影响返回）
func (o *Orchestrator) recordCycle(ctx context.Context, summary *model.CycleSummary) {
	if o.sink == nil {
		return
	}
	payload, err := summary.MarshalResults()
	if err != nil {
		o.logger.WithError(err).Error("周期结果序列化失败")
		return
	}
	run := &model.ScrapeRun{
		RunUUID:         summary.RunUUID,
		Kind:            summary.Kind,
		Success:         len(summary.SourcesFailed) == 0,
		TotalFound:      summary.TotalEventsFound,
		TotalSaved:      summary.TotalEventsSaved,
		SourceResults:   datatypes.JSON(payload),
		StartedAt:       summary.StartTime,
		FinishedAt:      summary.EndTime,
		DurationSeconds: summary.DurationSeconds,
	}
	if err := o.sink.RecordRun(ctx, run); err != nil {
		o.logger.WithError(err).Error("周期运行记录落库失败")
	}
}

func failedResult(source model.SourceType, err error) *model.ScrapeResult {
	now := time.Now()
	return &model.ScrapeResult{
		Source:    string(source),
		Success:   false,
		Errors:    []string{err.Error()},
		StartTime: now,
		EndTime:   now,
	}
}
