package api

import (
	"context"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/api/handlers/health"
	resolveHandler "github.com/CultureBotAI/CultureMech-sub001/internal/api/handlers/resolve"
	"github.com/CultureBotAI/CultureMech-sub001/internal/api/middleware"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/cache"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/dictionary"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/resolver"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 線上解析請求的超時設置
const timeoutDuration = 120 * time.Second

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, dict *dictionary.Dictionary, res *resolver.Resolver, store cache.Store) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 全局中間件：設置超時並注入依賴
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("dictionary", dict)
		c.Set("cache_store", store)

		c.Next()
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		h := resolveHandler.NewHandler(res)
		api.POST("/resolve", h.HandleResolve)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
	)

	return router
}
