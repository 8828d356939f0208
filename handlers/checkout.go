package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pricelens/config"
	"pricelens/services"
)

// CheckoutHandlers records purchase-intent clicks
type CheckoutHandlers struct {
	analytics *services.AnalyticsService
	buyURL    string
}

func NewCheckoutHandlers(analytics *services.AnalyticsService, cfg *config.Config) *CheckoutHandlers {
	return &CheckoutHandlers{
		analytics: analytics,
		buyURL:    cfg.Checkout.BuyURL,
	}
}

// RecordClick logs a checkout click and hands back the configured buy URL.
// Payment itself happens on the external provider, not here.
func (ch *CheckoutHandlers) RecordClick(c echo.Context) error {
	ch.analytics.RecordCheckoutClick(c.RealIP())

	return c.JSON(http.StatusOK, map[string]string{
		"checkout_url": ch.buyURL,
	})
}
