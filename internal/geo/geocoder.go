package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"EventScout/internal/config"
)

// searchResponse OneMap搜索接口响应结构
type searchResponse struct {
	Found   int `json:"found"`
	Results []struct {
		SearchVal string `json:"SEARCHVAL"`
		Latitude  string `json:"LATITUDE"`
		Longitude string `json:"LONGITUDE"`
	} `json:"results"`
}

// Geocoder 地址转经纬度服务（OneMap接口 + 可选Redis缓存）
type Geocoder struct {
	client   *resty.Client
	cfg      *config.GeocodeConfig
	redisCli *redis.Client
	logger   *logrus.Logger
}

// NewGeocoder 创建地理编码服务（RedisAddr为空时不启用缓存）
func NewGeocoder(cfg *config.GeocodeConfig, logger *logrus.Logger) *Geocoder {
	g := &Geocoder{
		client: resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
		cfg:    cfg,
		logger: logger,
	}
	if cfg.RedisAddr != "" {
		g.redisCli = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	return g
}

// Geocode 地址转经纬度（失败或结果越界返回 ok=false，不报错中断流程）
func (g *Geocoder) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	if address == "" {
		return 0, 0, false
	}

	// 1. 查缓存
	cacheKey := "geocode:" + address
	if g.redisCli != nil {
		if cached, err := g.redisCli.Get(ctx, cacheKey).Result(); err == nil {
			var lat, lng float64
			if _, err := fmt.Sscanf(cached, "%f,%f", &lat, &lng); err == nil {
				return lat, lng, true
			}
		}
	}

	// 2. 调用搜索接口
	var resp searchResponse
	req := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"searchVal":      address,
			"returnGeom":     "Y",
			"getAddrDetails": "N",
			"pageNum":        "1",
		}).
		SetResult(&resp)
	if g.cfg.APIKey != "" {
		req.SetHeader("Authorization", g.cfg.APIKey)
	}
	r, err := req.Get(g.cfg.BaseURL)
	if err != nil {
		g.logger.WithError(err).WithField("address", address).Warn("地理编码请求失败")
		return 0, 0, false
	}
	if r.IsError() || resp.Found == 0 || len(resp.Results) == 0 {
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(resp.Results[0].Latitude, 64)
	lng, errLng := strconv.ParseFloat(resp.Results[0].Longitude, 64)
	if errLat != nil || errLng != nil {
		return 0, 0, false
	}
	// 越界结果直接丢弃
	if !IsWithinSingapore(lat, lng) {
		return 0, 0, false
	}

	// 3. 写缓存
	if g.redisCli != nil {
		_ = g.redisCli.Set(ctx, cacheKey, fmt.Sprintf("%f,%f", lat, lng), g.cfg.CacheTTL).Err()
	}
	return lat, lng, true
}
