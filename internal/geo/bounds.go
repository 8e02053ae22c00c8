package geo

import (
	"math"
	"strings"
)

// 新加坡经纬度边界（含少量缓冲，覆盖离岛）
const (
	MinLatitude  = 1.2
	MaxLatitude  = 1.5
	MinLongitude = 103.6
	MaxLongitude = 104.0
)

// IsWithinSingapore 判断坐标是否落在新加坡边界内
func IsWithinSingapore(lat, lng float64) bool {
	return lat >= MinLatitude && lat <= MaxLatitude &&
		lng >= MinLongitude && lng <= MaxLongitude
}

// Area 新加坡规划区（名称+中心坐标）
type Area struct {
	Name string
	Lat  float64
	Lng  float64
}

// areas 常见规划区中心点（地址关键词归属+最近区域判断共用）
var areas = []Area{
	{"Orchard", 1.3048, 103.8318},
	{"Marina Bay", 1.2834, 103.8607},
	{"Chinatown", 1.2812, 103.8448},
	{"Little India", 1.3067, 103.8518},
	{"Kampong Glam", 1.3025, 103.8591},
	{"Clarke Quay", 1.2906, 103.8465},
	{"Sentosa", 1.2494, 103.8303},
	{"Bugis", 1.3009, 103.8558},
	{"Raffles Place", 1.2840, 103.8515},
	{"Tanjong Pagar", 1.2764, 103.8454},
	{"Ang Mo Kio", 1.3691, 103.8454},
	{"Bedok", 1.3236, 103.9273},
	{"Bishan", 1.3506, 103.8480},
	{"Bukit Batok", 1.3490, 103.7498},
	{"Clementi", 1.3142, 103.7649},
	{"Hougang", 1.3613, 103.8929},
	{"Jurong West", 1.3404, 103.7090},
	{"Pasir Ris", 1.3721, 103.9474},
	{"Sengkang", 1.3868, 103.8947},
	{"Tampines", 1.3496, 103.9568},
	{"Toa Payoh", 1.3343, 103.8563},
	{"Woodlands", 1.4302, 103.7890},
	{"Yishun", 1.4231, 103.8298},
	{"Punggol", 1.3984, 103.9072},
	{"Queenstown", 1.2942, 103.7861},
	{"Geylang", 1.3201, 103.8918},
	{"Kallang", 1.3100, 103.8714},
	{"Novena", 1.3203, 103.8439},
	{"Changi", 1.3450, 103.9832},
	{"Boon Lay", 1.3386, 103.7059},
}

// singaporeIndicators 文本中出现即视为新加坡地址的关键词
var singaporeIndicators = []string{
	"singapore", "sg", "orchard", "marina", "sentosa", "chinatown",
	"bugis", "raffles", "clarke quay", "tanjong pagar", "jurong",
	"tampines", "woodlands", "yishun", "hougang", "bedok", "bishan",
	"clementi", "toa payoh", "ang mo kio", "pasir ris", "sengkang",
	"punggol", "geylang", "kallang", "novena", "changi", "queenstown",
}

// MentionsSingapore 判断文本是否包含新加坡地名关键词
func MentionsSingapore(text string) bool {
	lower := strings.ToLower(text)
	for _, ind := range singaporeIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// AreaForAddress 根据地址文本匹配规划区名称（无法匹配返回空串）
func AreaForAddress(address string) string {
	lower := strings.ToLower(address)
	for _, a := range areas {
		if strings.Contains(lower, strings.ToLower(a.Name)) {
			return a.Name
		}
	}
	return ""
}

// NearestArea 返回坐标最近的规划区名称
func NearestArea(lat, lng float64) string {
	best := ""
	bestDist := math.MaxFloat64
	for _, a := range areas {
		d := (a.Lat-lat)*(a.Lat-lat) + (a.Lng-lng)*(a.Lng-lng)
		if d < bestDist {
			bestDist = d
			best = a.Name
		}
	}
	return best
}
