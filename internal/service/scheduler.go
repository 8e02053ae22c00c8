package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"EventScout/internal/config"
	"EventScout/internal/interfaces"
)

// incrementalCaps 增量周期各源抓取上限（频繁执行，控制量）
var incrementalCaps = map[string]int{
	"visitsingapore": 50,
	"eventbrite":     100,
	"marinabaysands": 30,
	"sunteccity":     20,
	"commclubs":      80,
}

// comprehensiveCaps 全量周期各源抓取上限（每周一次，放开量）
var comprehensiveCaps = map[string]int{
	"visitsingapore": 200,
	"eventbrite":     300,
	"marinabaysands": 100,
	"sunteccity":     80,
	"commclubs":      200,
}

// Scheduler 定时调度器：按新加坡时区排程增量/全量抓取与数据维护
type Scheduler struct {
	cfg          *config.Config
	orchestrator *Orchestrator
	sink         interfaces.EventSink
	cron         *cron.Cron
	logger       *logrus.Logger
}

func NewScheduler(cfg *config.Config, orchestrator *Orchestrator, sink interfaces.EventSink, logger *logrus.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		sink:         sink,
		cron:         cron.New(cron.WithLocation(loc)),
		logger:       logger,
	}, nil
}

// Start 注册定时任务并启动调度
func (s *Scheduler) Start() error {
	sched := s.cfg.Schedule

	for _, spec := range sched.IncrementalCrons {
		if _, err := s.cron.AddFunc(spec, func() {
			s.runWithRetry("incremental", func(ctx context.Context) bool {
				summary := s.orchestrator.RunCycle(ctx, "incremental", incrementalCaps)
				return len(summary.SourcesFailed) == 0
			})
		}); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc(sched.ComprehensiveCron, func() {
		s.runWithRetry("comprehensive", func(ctx context.Context) bool {
			summary := s.orchestrator.RunCycleSequential(ctx, "comprehensive", comprehensiveCaps, sched.SourceDelay)
			return len(summary.SourcesFailed) == 0
		})
	}); err != nil {
		return err
	}

	// 维护任务不重试，下一天自然补偿
	if _, err := s.cron.AddFunc(sched.MaintenanceCron, s.runMaintenance); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"incremental":   sched.IncrementalCrons,
		"comprehensive": sched.ComprehensiveCron,
		"maintenance":   sched.MaintenanceCron,
	}).Info("定时调度器已启动")
	return nil
}

// Stop 停止调度并等待进行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时调度器已停止")
}

// runWithRetry 抓取任务执行（整轮失败时指数退避重试）
func (s *Scheduler) runWithRetry(kind string, run func(ctx context.Context) bool) {
	ctx := context.Background()
	for attempt := 0; attempt <= s.cfg.Schedule.JobMaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.cfg.Schedule.JobRetryDelay * time.Duration(1<<(attempt-1))
			s.logger.WithFields(logrus.Fields{
				"kind":    kind,
				"attempt": attempt,
				"delay":   delay,
			}).Warn("抓取周期存在失败源，等待后重试")
			time.Sleep(delay)
		}
		if run(ctx) {
			return
		}
	}
	s.logger.WithField("kind", kind).Error("抓取周期重试次数耗尽")
}

// runMaintenance 数据维护：清理过期未审核记录并归档历史活动
func (s *Scheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	now := time.Now()
	cleanupCutoff := now.AddDate(0, 0, -s.cfg.Schedule.CleanupAfterDays)
	deleted, err := s.sink.DeleteUnapprovedBefore(ctx, cleanupCutoff)
	if err != nil {
		s.logger.WithError(err).Error("清理未审核记录失败")
	}

	archiveCutoff := now.AddDate(0, 0, -s.cfg.Schedule.ArchiveAfterDays)
	archived, err := s.sink.DeactivateDatedBefore(ctx, archiveCutoff)
	if err != nil {
		s.logger.WithError(err).Error("归档历史活动失败")
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":  deleted,
		"archived": archived,
	}).Info("数据维护完成")
}
