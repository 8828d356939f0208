package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pricelens/services"
)

// SystemHandlers serves health and status endpoints
type SystemHandlers struct {
	cache     *services.CacheService
	collab    *services.CollabService
	startedAt time.Time
}

func NewSystemHandlers(cache *services.CacheService, collab *services.CollabService) *SystemHandlers {
	return &SystemHandlers{
		cache:     cache,
		collab:    collab,
		startedAt: time.Now(),
	}
}

// GetHealth returns OK
func (sh *SystemHandlers) GetHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// GetStatus returns backend status
func (sh *SystemHandlers) GetStatus(c echo.Context) error {
	status := map[string]interface{}{
		"status":        "running",
		"uptime":        time.Since(sh.startedAt).Round(time.Second).String(),
		"cache_mode":    string(sh.cache.GetCacheMode()),
		"live_sessions": sh.collab.SessionCount(),
		"timestamp":     time.Now(),
	}
	return c.JSON(http.StatusOK, status)
}
