package health

import (
	"net/http"
	"runtime"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/cache"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/dictionary"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Runtime    map[string]interface{} `json:"runtime"`
	Dictionary *DictionaryStatus      `json:"dictionary,omitempty"`
	Cache      *cache.Stats           `json:"cache,omitempty"`
}

// DictionaryStatus 字典狀態
type DictionaryStatus struct {
	Entries int `json:"entries"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	// 字典與快取狀態（已注入時）
	if d, exists := c.Get("dictionary"); exists {
		if dict, ok := d.(*dictionary.Dictionary); ok {
			response.Dictionary = &DictionaryStatus{Entries: dict.Size()}
		}
	}
	if s, exists := c.Get("cache_store"); exists {
		if store, ok := s.(cache.Store); ok {
			stats := store.Stats()
			response.Cache = &stats
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
func ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
