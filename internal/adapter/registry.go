package adapter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"EventScout/internal/config"
	"EventScout/internal/interfaces"
	"EventScout/internal/model"
)

// ========== 全局工厂函数注册表（各站点适配器init时注册） ==========
var factoryRegistry = make(map[model.SourceType]interfaces.Factory)

// Register 供适配器init函数调用，注册工厂函数
func Register(source model.SourceType, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", source))
	}
	if _, exists := factoryRegistry[source]; exists {
		logrus.Warnf("数据源%s的适配器已注册，将覆盖原有实现", source)
	}
	factoryRegistry[source] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(source model.SourceType) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[source]
	return factory, ok
}

// ListFactories 列出所有已注册的数据源
func ListFactories() []model.SourceType {
	var sources []model.SourceType
	for s := range factoryRegistry {
		sources = append(sources, s)
	}
	return sources
}

// SourceRegistry 数据源注册表：按配置创建适配器实例
// 适配器内部持有限速状态，每轮抓取都通过Create新建实例，保证各轮互不影响
type SourceRegistry struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewSourceRegistry(cfg *config.Config, logger *logrus.Logger) *SourceRegistry {
	r := &SourceRegistry{cfg: cfg, logger: logger}
	r.logger.WithField("factory_sources", ListFactories()).Info("已注册的数据源工厂函数")
	return r
}

// EnabledSources 配置中启用且已注册工厂函数的数据源列表
func (r *SourceRegistry) EnabledSources() []model.SourceType {
	var sources []model.SourceType
	for name, sc := range r.cfg.Sources {
		if !sc.Enabled {
			continue
		}
		st := model.SourceType(name)
		if _, ok := factoryRegistry[st]; !ok {
			r.logger.WithField("source", name).Error("配置中的数据源未注册工厂函数（init未执行？）")
			continue
		}
		sources = append(sources, st)
	}
	return sources
}

// Create 新建指定数据源的适配器实例
func (r *SourceRegistry) Create(source model.SourceType) (interfaces.SourceAdapter, error) {
	factory, ok := GetFactory(source)
	if !ok {
		return nil, fmt.Errorf("数据源%s未注册工厂函数", source)
	}
	sc, ok := r.cfg.Sources[string(source)]
	if !ok {
		return nil, fmt.Errorf("数据源%s缺少配置", source)
	}
	if !sc.Enabled {
		return nil, fmt.Errorf("数据源%s已禁用", source)
	}

	adapterIns := factory(&sc, &r.cfg.Scraping, r.logger)
	if adapterIns == nil {
		return nil, fmt.Errorf("数据源%s的工厂函数返回nil实例", source)
	}
	return adapterIns, nil
}
