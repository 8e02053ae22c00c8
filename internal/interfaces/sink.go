package interfaces

import (
	"context"
	"time"

	"EventScout/internal/model"
)

// EventSink 持久化协作方：接收处理完成的Listing并支撑去重回查与保留期维护
type EventSink interface {
	// SaveListings 批量入库，单条失败不阻塞同批其余记录；返回成功条数与逐条错误
	SaveListings(ctx context.Context, listings []*model.Listing, source string) (int, []string, error)

	// FindSimilarTitles 查询同日期、标题包含给定前缀（小写）的已入库标题，供模糊去重
	FindSimilarTitles(ctx context.Context, date time.Time, titlePrefix string) ([]string, error)

	// RecordRun 落库一轮周期汇总
	RecordRun(ctx context.Context, run *model.ScrapeRun) error

	// DeleteUnapprovedBefore 删除早于cutoff创建且未审核的抓取记录（维护周期用）
	DeleteUnapprovedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeactivateDatedBefore 将活动日期早于cutoff的记录置为失效（不删除）
	DeactivateDatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Geocoder 地理编码协作方：自由文本地址换取坐标，失败返回ok=false
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, ok bool)
}
