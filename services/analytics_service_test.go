package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/config"
	"pricelens/models"
	"pricelens/utils"
)

func newTestAnalytics() *AnalyticsService {
	cfg := &config.Config{}
	return NewAnalyticsService(cfg, nil, utils.NewGeoResolver(""), nil)
}

func TestAnalyticsSummaryInMemory(t *testing.T) {
	as := newTestAnalytics()
	engine := NewCalculatorService(ModeEnhanced)

	inputs := models.CalculatorInputs{
		CurrentPrice:    models.Num(49),
		CompetitorPrice: models.Num(79),
		Customers:       models.Num(300),
	}
	result := engine.Compute(inputs)

	as.RecordCalculation("203.0.113.9", inputs, result.Metrics)
	as.RecordCalculation("203.0.113.9", inputs, result.Metrics)
	as.RecordCheckoutClick("203.0.113.9")

	summary := as.Summary(time.Now().Add(-time.Hour))
	assert.Equal(t, 2, summary.TotalCalculations)
	assert.Equal(t, 1, summary.CheckoutClicks)
	assert.Equal(t, 67.0, summary.AvgRecommendedPrice)
	assert.Equal(t, 37.0, summary.AvgPriceChangePercent)
}

func TestAnalyticsSummaryRespectsWindow(t *testing.T) {
	as := newTestAnalytics()

	as.RecordCheckoutClick("203.0.113.9")

	summary := as.Summary(time.Now().Add(time.Minute))
	assert.Zero(t, summary.TotalCalculations)
	assert.Zero(t, summary.CheckoutClicks)
}

func TestAnalyticsByCountryWithoutGeoDB(t *testing.T) {
	as := newTestAnalytics()

	as.RecordCheckoutClick("203.0.113.9")
	as.RecordCheckoutClick("198.51.100.4")

	counts := as.ByCountry(time.Now().Add(-time.Hour))
	require.Len(t, counts, 1)
	assert.Equal(t, "Unknown", counts[0].Country)
	assert.Equal(t, 2, counts[0].Count)
}

func TestAnalyticsEventWindowIsBounded(t *testing.T) {
	as := newTestAnalytics()

	for i := 0; i < maxRecentEvents+50; i++ {
		as.RecordCheckoutClick("203.0.113.9")
	}

	summary := as.Summary(time.Time{})
	assert.Equal(t, maxRecentEvents, summary.CheckoutClicks)
}
