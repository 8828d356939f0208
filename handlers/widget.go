package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pricelens/config"
	"pricelens/utils"
)

// WidgetHandlers serves embed-widget version checks
type WidgetHandlers struct {
	versionConfig utils.VersionConfig
}

func NewWidgetHandlers(cfg *config.Config) *WidgetHandlers {
	vc := utils.VersionConfig{
		CurrentStable: cfg.Widget.CurrentStable,
		MinSupported:  cfg.Widget.MinSupported,
		Deprecated:    cfg.Widget.Deprecated,
	}
	if vc.CurrentStable == "" {
		vc = utils.DefaultVersionConfig
	}
	return &WidgetHandlers{versionConfig: vc}
}

// CheckVersion reports whether an embedded widget build needs upgrading.
// Widgets poll this on load and show the upgrade banner themselves.
func (wh *WidgetHandlers) CheckVersion(c echo.Context) error {
	widgetVersion := c.QueryParam("version")
	if widgetVersion == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"current_stable": wh.versionConfig.CurrentStable,
			"min_supported":  wh.versionConfig.MinSupported,
		})
	}

	status, needsUpgrade, severity := utils.CheckVersionStatus(widgetVersion, &wh.versionConfig)

	response := map[string]interface{}{
		"version":        widgetVersion,
		"status":         status,
		"needs_upgrade":  needsUpgrade,
		"severity":       severity,
		"current_stable": wh.versionConfig.CurrentStable,
	}

	if msg := utils.GetUpgradeMessage(widgetVersion, &wh.versionConfig); msg != "" {
		response["message"] = msg
	}

	return c.JSON(http.StatusOK, response)
}
