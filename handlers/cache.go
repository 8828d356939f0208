package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pricelens/services"
)

type CacheHandlers struct {
	cache *services.CacheService
}

func NewCacheHandlers(cache *services.CacheService) *CacheHandlers {
	return &CacheHandlers{
		cache: cache,
	}
}

// GetCacheStatus reports which backend is active and its statistics. The
// service runs fine on the in-memory fallback, so degraded is not an error.
func (h *CacheHandlers) GetCacheStatus(c echo.Context) error {
	mode := h.cache.GetCacheMode()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"mode":      string(mode),
		"degraded":  mode != services.CacheModeRedis,
		"stats":     h.cache.GetCacheStats(),
		"timestamp": time.Now(),
	})
}

// ClearCache drops every cached calculation result and share payload.
func (h *CacheHandlers) ClearCache(c echo.Context) error {
	if err := h.cache.ClearCache(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "cache cleared",
	})
}
