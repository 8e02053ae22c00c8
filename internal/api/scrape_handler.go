package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"EventScout/internal/adapter"
	"EventScout/internal/config"
	"EventScout/internal/model"
	"EventScout/internal/repository"
	"EventScout/internal/service"
)

type ScrapeHandler struct {
	cfg          *config.Config
	orchestrator *service.Orchestrator
	repo         *repository.EventRepository
	logger       *logrus.Logger
}

func NewScrapeHandler(cfg *config.Config, orchestrator *service.Orchestrator, repo *repository.EventRepository, logger *logrus.Logger) *ScrapeHandler {
	return &ScrapeHandler{
		cfg:          cfg,
		orchestrator: orchestrator,
		repo:         repo,
		logger:       logger,
	}
}

// RegisterRoutes 挂载管理接口路由
func (h *ScrapeHandler) RegisterRoutes(r *gin.Engine) {
	grp := r.Group("/api/scraping")
	{
		grp.POST("/run", h.RunCycleHandler)
		grp.POST("/run-sync", h.RunCycleSyncHandler)
		grp.POST("/source/:name", h.RunSourceHandler)
		grp.POST("/test/:name", h.TestSourceHandler)
		grp.GET("/sources", h.ListSourcesHandler)
		grp.GET("/stats", h.StatsHandler)
		grp.GET("/health", h.HealthHandler)
	}
}

// HealthHandler 管理接口存活探针
// @Router /api/scraping/health [get]
func (h *ScrapeHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunCycleHandler 异步触发一轮抓取周期（立即返回，后台执行）
// @Router /api/scraping/run [post]
func (h *ScrapeHandler) RunCycleHandler(c *gin.Context) {
	runUUID := uuid.NewString()
	go func() {
		summary := h.orchestrator.RunCycleWithID(context.Background(), runUUID, "manual", nil)
		h.logger.WithFields(logrus.Fields{
			"run_uuid": summary.RunUUID,
			"saved":    summary.TotalEventsSaved,
		}).Info("后台抓取周期完成")
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "抓取周期已在后台启动",
		"run_uuid": runUUID,
	})
}

// RunCycleSyncHandler 同步执行一轮抓取周期并返回完整结果
// @Router /api/scraping/run-sync [post]
func (h *ScrapeHandler) RunCycleSyncHandler(c *gin.Context) {
	summary := h.orchestrator.RunCycle(c.Request.Context(), "manual", nil)
	c.JSON(http.StatusOK, summary)
}

// RunSourceHandler 手动抓取单个数据源
// @Param name path string true "数据源名称"
// @Param max_events query int false "本次抓取上限"
// @Router /api/scraping/source/{name} [post]
func (h *ScrapeHandler) RunSourceHandler(c *gin.Context) {
	name := c.Param("name")
	maxEvents, _ := strconv.Atoi(c.DefaultQuery("max_events", "0"))

	result, err := h.orchestrator.RunSource(c.Request.Context(), model.SourceType(name), maxEvents)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TestSourceHandler 试抓数据源（不入库，返回处理后的样本）
// @Param name path string true "数据源名称"
// @Param limit query int false "样本数量（默认5）"
// @Router /api/scraping/test/{name} [post]
func (h *ScrapeHandler) TestSourceHandler(c *gin.Context) {
	name := c.Param("name")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	result, err := h.orchestrator.TestSource(c.Request.Context(), model.SourceType(name), limit)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":       result.Source,
		"success":      result.Success,
		"events_found": result.EventsFound,
		"errors":       result.Errors,
		"samples":      result.Listings,
	})
}

// ListSourcesHandler 列出所有数据源及其配置状态
// @Router /api/scraping/sources [get]
func (h *ScrapeHandler) ListSourcesHandler(c *gin.Context) {
	registered := make(map[model.SourceType]bool)
	for _, s := range adapter.ListFactories() {
		registered[s] = true
	}

	type sourceInfo struct {
		Name       string `json:"name"`
		BaseURL    string `json:"base_url"`
		Enabled    bool   `json:"enabled"`
		Registered bool   `json:"registered"`
		MaxEvents  int    `json:"max_events"`
	}
	var sources []sourceInfo
	for name, sc := range h.cfg.Sources {
		sources = append(sources, sourceInfo{
			Name:       name,
			BaseURL:    sc.BaseURL,
			Enabled:    sc.Enabled,
			Registered: registered[model.SourceType(name)],
			MaxEvents:  h.cfg.MaxEventsFor(name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// StatsHandler 抓取入库统计
// @Router /api/scraping/stats [get]
func (h *ScrapeHandler) StatsHandler(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("统计查询失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
