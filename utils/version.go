package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionConfig holds current embed-widget version requirements
type VersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultVersionConfig = VersionConfig{
	CurrentStable: "2.4.0", // Latest stable widget
	MinSupported:  "2.2.0", // Minimum supported widget
	Deprecated:    "2.0.0", // Widgets below this no longer render
}

// CheckVersionStatus determines if an embedded calculator widget needs upgrading
func CheckVersionStatus(widgetVersion string, config *VersionConfig) (status string, needsUpgrade bool, severity string) {
	if config == nil {
		config = &DefaultVersionConfig
	}

	// Clean version string (remove 'v' prefix if present)
	widgetVersion = strings.TrimPrefix(widgetVersion, "v")

	widgetVer, err := version.NewVersion(widgetVersion)
	if err != nil {
		return "unknown", false, "info"
	}

	current, _ := version.NewVersion(config.CurrentStable)
	minSupported, _ := version.NewVersion(config.MinSupported)
	deprecated, _ := version.NewVersion(config.Deprecated)

	if widgetVer.LessThan(deprecated) {
		return "deprecated", true, "critical"
	}

	if widgetVer.LessThan(minSupported) {
		return "outdated", true, "warning"
	}

	if widgetVer.LessThan(current) {
		return "outdated", true, "info"
	}

	return "current", false, "none"
}

// GetUpgradeMessage returns a human-readable upgrade message
func GetUpgradeMessage(widgetVersion string, config *VersionConfig) string {
	if config == nil {
		config = &DefaultVersionConfig
	}

	_, needsUpgrade, severity := CheckVersionStatus(widgetVersion, config)

	if !needsUpgrade {
		return ""
	}

	switch severity {
	case "critical":
		return "CRITICAL: This widget version is deprecated and no longer renders. Upgrade the embed snippet to " + config.CurrentStable + " immediately."
	case "warning":
		return "WARNING: This widget version is outdated. Please upgrade the embed snippet to " + config.CurrentStable + " soon."
	case "info":
		return "INFO: A newer widget version " + config.CurrentStable + " is available."
	}

	return ""
}
