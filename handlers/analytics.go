package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"pricelens/services"
)

// AnalyticsHandlers exposes usage analytics endpoints
type AnalyticsHandlers struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandlers(analytics *services.AnalyticsService) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analytics: analytics,
	}
}

// GetSummary returns aggregate counts over the requested window.
// Defaults to the last 30 days; override with ?days=N.
func (ah *AnalyticsHandlers) GetSummary(c echo.Context) error {
	since := sinceParam(c)
	summary := ah.analytics.Summary(since)
	return c.JSON(http.StatusOK, summary)
}

// GetByCountry breaks down calculation volume by resolved country.
func (ah *AnalyticsHandlers) GetByCountry(c echo.Context) error {
	since := sinceParam(c)
	counts := ah.analytics.ByCountry(since)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"since":     since,
		"countries": counts,
	})
}

func sinceParam(c echo.Context) time.Time {
	days := 30
	if daysStr := c.QueryParam("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 && d <= 365 {
			days = d
		}
	}
	return time.Now().AddDate(0, 0, -days)
}
