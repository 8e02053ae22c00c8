package interfaces

import (
	"context"

	"EventScout/internal/config"
	"EventScout/internal/model"

	"github.com/sirupsen/logrus"
)

// SourceAdapter 所有站点采集器必须实现的核心接口
type SourceAdapter interface {
	GetName() string                                                     // 数据源名称
	GetHost() string                                                     // 站点host
	MaxEvents() int                                                      // 本源单轮抓取上限
	Scrape(ctx context.Context, maxEvents int) ([]*model.Listing, error) // 抓取原始活动
}

// Factory 采集器工厂函数签名
// 入参：数据源配置、抓取公共配置、日志实例
// 出参：实现SourceAdapter接口的采集器实例（内部持有本轮专属的fetch客户端）
type Factory func(cfg *config.SourceConfig, scraping *config.ScrapingConfig, logger *logrus.Logger) SourceAdapter
