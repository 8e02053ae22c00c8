package model

import (
	"encoding/json"
	"time"
)

// ScrapeResult 单个数据源一次抓取的结果统计（创建后只读，不再修改）
type ScrapeResult struct {
	Source          string     `json:"source"`
	Success         bool       `json:"success"`
	EventsFound     int        `json:"events_found"`
	EventsSaved     int        `json:"events_saved"`
	Errors          []string   `json:"errors"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationSeconds float64    `json:"duration_seconds"`
	Listings        []*Listing `json:"-"` // 处理后样本，仅 TestSource 诊断使用
}

// CycleSummary 一轮编排周期的汇总（所有数据源的结果聚合）
type CycleSummary struct {
	RunUUID          string                   `json:"run_uuid"`
	Kind             string                   `json:"kind"` // incremental / comprehensive / manual
	Results          map[string]*ScrapeResult `json:"source_results"`
	TotalEventsFound int                      `json:"total_events_found"`
	TotalEventsSaved int                      `json:"total_events_saved"`
	SourcesSucceeded []string                 `json:"sources_scraped"`
	SourcesFailed    []string                 `json:"sources_failed"`
	StartTime        time.Time                `json:"start_time"`
	EndTime          time.Time                `json:"end_time"`
	DurationSeconds  float64                  `json:"duration_seconds"`
}

// Aggregate 由各源结果填充汇总字段
func (s *CycleSummary) Aggregate() {
	s.TotalEventsFound = 0
	s.TotalEventsSaved = 0
	s.SourcesSucceeded = s.SourcesSucceeded[:0]
	s.SourcesFailed = s.SourcesFailed[:0]
	for name, r := range s.Results {
		s.TotalEventsFound += r.EventsFound
		s.TotalEventsSaved += r.EventsSaved
		if r.Success {
			s.SourcesSucceeded = append(s.SourcesSucceeded, name)
		} else {
			s.SourcesFailed = append(s.SourcesFailed, name)
		}
	}
	s.DurationSeconds = s.EndTime.Sub(s.StartTime).Seconds()
}

// MarshalResults 各源结果序列化为JSON（运行历史落库用）
func (s *CycleSummary) MarshalResults() ([]byte, error) {
	return json.Marshal(s.Results)
}
