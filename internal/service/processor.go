package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"EventScout/internal/interfaces"
	"EventScout/internal/metrics"
	"EventScout/internal/model"
)

// Processor 活动数据处理流水线：校验 → 去重 → 补全 → 终校验 → 分批入库
type Processor struct {
	sink      interfaces.EventSink
	validator *Validator
	enricher  *Enricher
	batchSize int
	logger    *logrus.Entry
}

func NewProcessor(sink interfaces.EventSink, enricher *Enricher, batchSize int, logger *logrus.Logger) *Processor {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Processor{
		sink:      sink,
		validator: NewValidator(),
		enricher:  enricher,
		batchSize: batchSize,
		logger:    logger.WithField("component", "processor"),
	}
}

// Process 处理一批抓取结果并入库，返回入库数与逐条错误
// dedup 由调用方按周期传入（同一轮内多源共享指纹集合）
func (p *Processor) Process(ctx context.Context, listings []*model.Listing, source string, dedup *Deduplicator) (int, []string) {
	now := time.Now()
	var accepted []*model.Listing
	var errs []string

	for _, l := range listings {
		// 1. 修整+初校验
		p.validator.Sanitize(l)
		if err := p.validator.Check(l, now); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", l.Title, err))
			metrics.EventsRejectedTotal.WithLabelValues(source, "validation").Inc()
			continue
		}

		// 2. 去重
		if dedup != nil && dedup.IsDuplicate(ctx, l) {
			metrics.EventsRejectedTotal.WithLabelValues(source, "duplicate").Inc()
			continue
		}

		// 3. 补全
		p.enricher.Enrich(ctx, l)

		// 4. 终校验（补全可能清掉越界坐标等，需再过一遍）
		if err := p.validator.Check(l, now); err != nil {
			errs = append(errs, fmt.Sprintf("%s: 补全后校验失败: %v", l.Title, err))
			metrics.EventsRejectedTotal.WithLabelValues(source, "post_enrich").Inc()
			continue
		}
		accepted = append(accepted, l)
	}

	// 5. 分批入库
	saved := 0
	for start := 0; start < len(accepted); start += p.batchSize {
		end := start + p.batchSize
		if end > len(accepted) {
			end = len(accepted)
		}
		n, batchErrs, err := p.sink.SaveListings(ctx, accepted[start:end], source)
		saved += n
		errs = append(errs, batchErrs...)
		if err != nil {
			errs = append(errs, fmt.Sprintf("批量入库失败: %v", err))
			p.logger.WithError(err).WithField("source", source).Error("批量入库失败")
		}
	}

	p.logger.WithFields(logrus.Fields{
		"source":   source,
		"received": len(listings),
		"accepted": len(accepted),
		"saved":    saved,
		"errors":   len(errs),
	}).Info("流水线处理完成")
	return saved, errs
}
