package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/models"
)

func typicalInputs() models.CalculatorInputs {
	return models.CalculatorInputs{
		CurrentPrice:          models.Num(49),
		CompetitorPrice:       models.Num(79),
		Customers:             models.Num(300),
		ChurnRate:             models.Num(5),
		CAC:                   models.Num(100),
		AverageContractLength: models.Num(12),
		ExpansionRevenue:      models.Num(10),
		MarketSize:            models.Num(1000000),
	}
}

func TestComputeTypicalScenario(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)
	result := svc.Compute(typicalInputs())
	m := result.Metrics

	// Undercut the competitor by 15%: 79 * 0.85 = 67.15 -> 67
	assert.Equal(t, 67.0, m.OptimalPrice)
	// 67 * 12 / 0.05
	assert.Equal(t, 16080.0, m.LTV)
	assert.Equal(t, 160.8, m.LTVCACRatio)
	assert.Equal(t, 20100.0, m.MonthlyRevenue)
	assert.Equal(t, 241200.0, m.YearlyRevenue)
	assert.Equal(t, 105.0, m.NRR)
	assert.Equal(t, 2.0, m.QuickRatio)
	assert.Equal(t, 6.43, m.MagicNumber)
	assert.Equal(t, 120.0, m.RuleOf40)
	assert.Equal(t, 1.49, m.PaybackPeriod)
	assert.Equal(t, 37.0, m.PriceIncreasePercent)
	assert.InDelta(t, 0.03, m.MarketShare, 0.011)
}

func TestComputeMarkupWithoutCompetitor(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	// No competitor price: mark the user's own price up 35%.
	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice: models.Num(50),
		Customers:    models.Num(100),
	})

	// 50 * 1.35 = 67.5, half rounds away from zero
	assert.Equal(t, 68.0, result.Metrics.OptimalPrice)
	assert.Equal(t, 36.0, result.Metrics.PriceIncreasePercent)
}

func TestComputeAllDefaults(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)
	result := svc.Compute(models.CalculatorInputs{})
	m := result.Metrics

	assert.Equal(t, 0.0, m.OptimalPrice)
	assert.Equal(t, 0.0, m.LTV)
	assert.Equal(t, 0.0, m.LTVCACRatio)
	assert.Equal(t, 0.0, m.MonthlyRevenue)
	assert.Equal(t, 0.0, m.YearlyRevenue)
	// Default churn 5 and expansion 10 still yield retention metrics.
	assert.Equal(t, 105.0, m.NRR)
	assert.Equal(t, 2.0, m.QuickRatio)
	assert.Equal(t, 95.0, m.RuleOf40)
	assert.Equal(t, 0.0, m.PaybackPeriod)
	assert.Equal(t, 0.0, m.MarketShare)
	assert.Equal(t, 0.0, m.PriceIncreasePercent)
}

func TestComputeZeroChurn(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice:     models.Num(100),
		ChurnRate:        models.Num(0),
		ExpansionRevenue: models.Num(10),
	})
	m := result.Metrics

	// 135 * 12 * 12, annualized instead of dividing by zero churn
	assert.Equal(t, 19440.0, m.LTV)
	assert.Equal(t, 999.0, m.QuickRatio)
	assert.Equal(t, 110.0, m.NRR)
}

func TestComputeZeroChurnZeroExpansion(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice:     models.Num(100),
		ChurnRate:        models.Num(0),
		ExpansionRevenue: models.Num(0),
	})

	assert.Equal(t, 0.0, result.Metrics.QuickRatio)
}

func TestComputeZeroCAC(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice: models.Num(100),
		CAC:          models.Num(0),
	})

	assert.Equal(t, 0.0, result.Metrics.LTVCACRatio)
	assert.Equal(t, 0.0, result.Metrics.PaybackPeriod)
}

func TestComputeClampsNegativeInputs(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice: models.Num(-50),
		Customers:    models.Num(-10),
		ChurnRate:    models.Num(-5),
	})

	assert.Equal(t, 0.0, result.Metrics.OptimalPrice)
	assert.Equal(t, 0.0, result.Metrics.MonthlyRevenue)
	// Negative churn clamps to zero, not to the default.
	assert.Equal(t, 110.0, result.Metrics.NRR)
}

func TestComputeDeterministic(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)
	in := typicalInputs()

	first := svc.Compute(in)
	second := svc.Compute(in)

	assert.Equal(t, first, second)
	assert.Equal(t, svc.CacheKey(in), svc.CacheKey(in))
}

func TestCacheKeyNormalization(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	// Unset fields and their explicit defaults hash identically.
	unset := models.CalculatorInputs{CurrentPrice: models.Num(50)}
	explicit := models.CalculatorInputs{
		CurrentPrice:          models.Num(50),
		ChurnRate:             models.Num(5),
		CAC:                   models.Num(100),
		AverageContractLength: models.Num(12),
		ExpansionRevenue:      models.Num(10),
		MarketSize:            models.Num(1000000),
	}
	assert.Equal(t, svc.CacheKey(unset), svc.CacheKey(explicit))

	other := models.CalculatorInputs{CurrentPrice: models.Num(51)}
	assert.NotEqual(t, svc.CacheKey(unset), svc.CacheKey(other))

	// Mode is part of the key, simple and enhanced results differ.
	simple := NewCalculatorService(ModeSimple)
	assert.NotEqual(t, svc.CacheKey(unset), simple.CacheKey(unset))
}

func TestSimpleModeOmitsEnhancedSections(t *testing.T) {
	svc := NewCalculatorService(ModeSimple)
	result := svc.Compute(typicalInputs())

	assert.Empty(t, result.CompetitorData)
	assert.Empty(t, result.MetricsRadar)
	assert.Empty(t, result.Insights)
	assert.Len(t, result.ProjectionData, 13)
}

func TestUnknownModeFallsBackToEnhanced(t *testing.T) {
	svc := NewCalculatorService(EngineMode("fancy"))
	assert.Equal(t, ModeEnhanced, svc.Mode())
}

func TestBuildTiers(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)
	result := svc.Compute(typicalInputs())
	tiers := result.Tiers

	assert.Equal(t, "Starter", tiers.Starter.Name)
	assert.Equal(t, 40.0, tiers.Starter.Price) // 67 * 0.6 = 40.2 -> 40
	assert.False(t, tiers.Starter.Recommended)

	assert.Equal(t, 67.0, tiers.Professional.Price)
	assert.True(t, tiers.Professional.Recommended)

	assert.Equal(t, 147.0, tiers.Enterprise.Price) // 67 * 2.2 = 147.4 -> 147
	assert.False(t, tiers.Enterprise.Recommended)

	assert.True(t, tiers.Starter.Price < tiers.Professional.Price)
	assert.True(t, tiers.Professional.Price < tiers.Enterprise.Price)
}

func TestProjectionCompounds(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)
	result := svc.Compute(typicalInputs())

	points := result.ProjectionData
	require.Len(t, points, 13)

	assert.Equal(t, 0, points[0].Month)
	assert.Equal(t, 12, points[12].Month)
	assert.Equal(t, 300, points[0].Customers)

	// Expansion 10 vs churn 5 means 5% net monthly growth.
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Customers, points[i-1].Customers,
			"customers should not shrink under positive net growth")
		assert.Equal(t, points[i].Revenue, points[i].MRR)
	}
	assert.Equal(t, 315, points[1].Customers)
}

func TestProjectionNeverNegative(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice:     models.Num(10),
		Customers:        models.Num(5),
		ChurnRate:        models.Num(100),
		ExpansionRevenue: models.Num(0),
	})

	for _, p := range result.ProjectionData {
		assert.GreaterOrEqual(t, p.Customers, 0)
		assert.GreaterOrEqual(t, p.Revenue, 0.0)
	}
}

func TestRadarScoresWithinBounds(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	cases := []models.CalculatorInputs{
		typicalInputs(),
		{},
		{CurrentPrice: models.Num(1000000), ChurnRate: models.Num(0.01), CAC: models.Num(1)},
		{CurrentPrice: models.Num(1), ChurnRate: models.Num(100), CAC: models.Num(100000)},
	}

	for _, in := range cases {
		result := svc.Compute(in)
		require.Len(t, result.MetricsRadar, 6)
		for _, r := range result.MetricsRadar {
			assert.GreaterOrEqual(t, r.Value, 0.0, "radar %s", r.Metric)
			assert.LessOrEqual(t, r.Value, 100.0, "radar %s", r.Metric)
		}
	}
}

func TestInsightRules(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	titles := func(insights []models.Insight) []string {
		out := make([]string, 0, len(insights))
		for _, i := range insights {
			out = append(out, i.Title)
		}
		return out
	}

	// Strong economics with a large underpricing gap.
	good := svc.Compute(typicalInputs())
	assert.Equal(t, []string{
		"Healthy Unit Economics",
		"Significant Pricing Opportunity",
		"Rule of 40 Achieved",
	}, titles(good.Insights))

	// Weak economics fire the warning branch instead.
	bad := svc.Compute(models.CalculatorInputs{
		CurrentPrice: models.Num(10),
		Customers:    models.Num(10),
		ChurnRate:    models.Num(80),
		CAC:          models.Num(5000),
	})
	require.NotEmpty(t, bad.Insights)
	assert.Equal(t, "LTV:CAC Ratio Below Target", bad.Insights[0].Title)
	assert.Equal(t, models.InsightWarning, bad.Insights[0].Type)

	// The first rule is exclusive, never both branches.
	for _, result := range []models.CalculationResult{good, bad} {
		healthy, warning := 0, 0
		for _, i := range result.Insights {
			switch i.Title {
			case "Healthy Unit Economics":
				healthy++
			case "LTV:CAC Ratio Below Target":
				warning++
			}
		}
		assert.Equal(t, 1, healthy+warning)
	}

	// Bounds: always between 1 and 4.
	for _, in := range []models.CalculatorInputs{typicalInputs(), {}, {ExpansionRevenue: models.Num(50)}} {
		n := len(svc.Compute(in).Insights)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 4)
	}
}

func TestHighNRRInsight(t *testing.T) {
	svc := NewCalculatorService(ModeEnhanced)

	result := svc.Compute(models.CalculatorInputs{
		CurrentPrice:     models.Num(100),
		ChurnRate:        models.Num(3),
		ExpansionRevenue: models.Num(20),
	})

	found := false
	for _, i := range result.Insights {
		if i.Title == "Excellent Net Revenue Retention" {
			found = true
			assert.Equal(t, models.InsightSuccess, i.Type)
		}
	}
	assert.True(t, found, "NRR 117 should trigger the retention insight")
}
