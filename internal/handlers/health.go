package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	version string
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, version: version}
}

// Health reports liveness plus the status of the backing stores.
func (h *HealthHandler) Health(c *gin.Context) {
	services := map[string]string{
		"postgres": "up",
		"redis":    "up",
	}
	status := "healthy"

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		services["postgres"] = "down"
		status = "degraded"
	}

	if h.rdb == nil || h.rdb.Ping(c.Request.Context()).Err() != nil {
		services["redis"] = "down"
		status = "degraded"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"message":   "Party Spark API is running",
		"services":  services,
		"version":   h.version,
		"timestamp": time.Now().UTC(),
	})
}

// Info describes the API for discovery.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_name":    "Party Spark API",
		"version":     h.version,
		"description": "A comprehensive API for event and party management",
		"endpoints": gin.H{
			"auth":          "/api/v1/auth/",
			"parties":       "/api/v1/parties/",
			"invitations":   "/api/v1/invitations/",
			"notifications": "/api/v1/notifications/",
			"media":         "/api/v1/media/",
			"analytics":     "/api/v1/analytics/",
		},
	})
}
