package model

import (
	"time"

	"gorm.io/datatypes"
)

// ValidCategories 活动分类固定词表（与 categories 表种子数据一致）
var ValidCategories = []string{
	"concerts", "sports", "festivals", "exhibitions", "workshops",
	"family", "food", "nightlife", "theatre", "business", "general",
}

// IsValidCategory 判断 slug 是否在固定词表内
func IsValidCategory(slug string) bool {
	for _, c := range ValidCategories {
		if c == slug {
			return true
		}
	}
	return false
}

type Category struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name      string    `gorm:"column:name;type:varchar(64);not null;comment:分类名称"`
	Slug      string    `gorm:"column:slug;type:varchar(64);uniqueIndex;not null;comment:分类slug"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

type Tag struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name      string    `gorm:"column:name;type:varchar(64);not null;comment:标签名称"`
	Slug      string    `gorm:"column:slug;type:varchar(64);uniqueIndex;not null;comment:标签slug"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

// Event 入库的活动记录（抓取产物统一打 pending review 标记，待人工审核）
type Event struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Title            string     `gorm:"column:title;type:varchar(255);not null;comment:活动标题"`
	Description      string     `gorm:"column:description;type:text;comment:活动描述"`
	ShortDescription string     `gorm:"column:short_description;type:varchar(500);comment:活动简述"`
	Date             *time.Time `gorm:"column:date;type:date;index;comment:活动日期"`
	Time             string     `gorm:"column:time;type:varchar(8);comment:开始时间 HH:MM"`
	EndDate          *time.Time `gorm:"column:end_date;type:date;comment:结束日期"`
	EndTime          string     `gorm:"column:end_time;type:varchar(8);comment:结束时间 HH:MM"`
	Location         string     `gorm:"column:location;type:varchar(255);not null;comment:位置描述"`
	Venue            string     `gorm:"column:venue;type:varchar(255);comment:场馆名称"`
	Address          string     `gorm:"column:address;type:varchar(500);comment:详细地址"`
	Latitude         *float64   `gorm:"column:latitude;type:numeric(10,7);comment:纬度"`
	Longitude        *float64   `gorm:"column:longitude;type:numeric(10,7);comment:经度"`
	AgeRestrictions  string     `gorm:"column:age_restrictions;type:varchar(64);comment:年龄限制"`
	PriceInfo        string     `gorm:"column:price_info;type:varchar(128);comment:票价信息"`
	ExternalURL      string     `gorm:"column:external_url;type:varchar(512);comment:外部链接"`
	ImageURL         string     `gorm:"column:image_url;type:varchar(512);comment:图片链接"`
	CategoryID       uint64     `gorm:"column:category_id;type:bigint;not null;index;comment:关联分类ID"`
	Source           string     `gorm:"column:source;type:varchar(16);default:scraped;comment:记录来源"`
	ScrapedFrom      string     `gorm:"column:scraped_from;type:varchar(64);index;comment:抓取站点"`
	ExternalID       string     `gorm:"column:external_id;type:varchar(32);index;comment:外部确定性ID"`
	LastScraped      time.Time  `gorm:"column:last_scraped;type:timestamp;comment:最近抓取时间"`
	IsApproved       bool       `gorm:"column:is_approved;type:boolean;default:false;comment:是否已审核"`
	IsActive         bool       `gorm:"column:is_active;type:boolean;default:true;comment:是否有效"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
	Tags             []Tag      `gorm:"many2many:event_tags;"`
}

// ScrapeRun 一轮编排周期的落库记录（admin 统计接口读取）
type ScrapeRun struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	RunUUID         string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Kind            string         `gorm:"column:kind;type:varchar(16);not null;comment:周期类型"`
	Success         bool           `gorm:"column:success;type:boolean;default:false;comment:是否成功"`
	TotalFound      int            `gorm:"column:total_found;type:int;default:0;comment:发现活动数"`
	TotalSaved      int            `gorm:"column:total_saved;type:int;default:0;comment:入库活动数"`
	SourceResults   datatypes.JSON `gorm:"column:source_results;type:jsonb;comment:各源结果明细"`
	StartedAt       time.Time      `gorm:"column:started_at;type:timestamp;not null;comment:开始时间"`
	FinishedAt      time.Time      `gorm:"column:finished_at;type:timestamp;not null;comment:结束时间"`
	DurationSeconds float64        `gorm:"column:duration_seconds;type:numeric(10,3);comment:耗时秒"`
}

func (Category) TableName() string  { return "categories" }
func (Tag) TableName() string       { return "tags" }
func (Event) TableName() string     { return "events" }
func (ScrapeRun) TableName() string { return "scrape_runs" }
