package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 抓取层Prometheus指标（/metrics 暴露）
var (
	ScrapeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventscout_scrape_runs_total",
		Help: "各数据源抓取次数（按结果区分）",
	}, []string{"source", "status"})

	EventsFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventscout_events_found_total",
		Help: "各数据源抓取到的原始活动数",
	}, []string{"source"})

	EventsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventscout_events_saved_total",
		Help: "各数据源入库成功的活动数",
	}, []string{"source"})

	EventsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventscout_events_rejected_total",
		Help: "校验或去重阶段丢弃的活动数",
	}, []string{"source", "reason"})

	ScrapeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eventscout_scrape_duration_seconds",
		Help:    "单源抓取耗时分布",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"source"})

	ScrapersInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventscout_scrapers_in_flight",
		Help: "当前并发运行的采集器数量",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventscout_http_requests_total",
		Help: "抓取层发出的HTTP请求数（按状态分类）",
	}, []string{"source", "outcome"})
)

// RecordRun 记录一次源级抓取结果
func RecordRun(source string, success bool, found, saved int, seconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	ScrapeRunsTotal.WithLabelValues(source, status).Inc()
	EventsFoundTotal.WithLabelValues(source).Add(float64(found))
	EventsSavedTotal.WithLabelValues(source).Add(float64(saved))
	ScrapeDuration.WithLabelValues(source).Observe(seconds)
}
