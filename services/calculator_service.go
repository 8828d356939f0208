package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"pricelens/models"
	"pricelens/utils"
)

// EngineMode selects the formula set. The legacy site shipped two forked
// calculators; both collapse into one engine here. Simple mode produces
// metrics, tiers and the projection; enhanced mode adds competitor rows,
// the radar chart and insights.
type EngineMode string

const (
	ModeSimple   EngineMode = "simple"
	ModeEnhanced EngineMode = "enhanced"
)

// quickRatioInfinite stands in for an unbounded quick ratio (zero churn with
// positive expansion). A finite sentinel keeps results JSON-serializable.
const quickRatioInfinite = 999

type CalculatorService struct {
	mode EngineMode
}

func NewCalculatorService(mode EngineMode) *CalculatorService {
	if mode != ModeSimple {
		mode = ModeEnhanced
	}
	return &CalculatorService{mode: mode}
}

func (cs *CalculatorService) Mode() EngineMode {
	return cs.mode
}

// normalizedInputs is the post-default, post-clamp form every formula works
// from. Parsing and defaulting happen exactly once, here.
type normalizedInputs struct {
	currentPrice     float64
	competitorPrice  float64
	customers        float64
	churnRate        float64
	cac              float64
	contractMonths   float64
	expansionRevenue float64
	marketSize       float64
}

func normalize(in models.CalculatorInputs) normalizedInputs {
	n := normalizedInputs{
		currentPrice:     math.Max(in.CurrentPrice.Or(0), 0),
		competitorPrice:  math.Max(in.CompetitorPrice.Or(0), 0),
		customers:        math.Max(in.Customers.Or(0), 0),
		churnRate:        in.ChurnRate.Or(5),
		cac:              math.Max(in.CAC.Or(100), 0),
		contractMonths:   in.AverageContractLength.Or(12),
		expansionRevenue: in.ExpansionRevenue.Or(10),
		marketSize:       math.Max(in.MarketSize.Or(1000000), 0),
	}
	if n.churnRate < 0 {
		n.churnRate = 0
	}
	if n.churnRate > 100 {
		n.churnRate = 100
	}
	if n.contractMonths <= 0 {
		n.contractMonths = 12
	}
	return n
}

// Compute derives the full calculation from a set of inputs. It is a total
// function: missing or malformed fields fall back to defaults and every
// division is guarded, so it never fails and never produces NaN or Inf.
// Identical inputs always yield an identical result.
func (cs *CalculatorService) Compute(in models.CalculatorInputs) models.CalculationResult {
	n := normalize(in)

	// Optimal price: undercut the competitor by 15%, or mark the user's own
	// price up 35% when no competitor price is known.
	optimal := n.currentPrice * 1.35
	if n.competitorPrice > 0 {
		optimal = n.competitorPrice * 0.85
	}
	optimal = utils.Round(optimal)

	var ltv float64
	if n.churnRate > 0 {
		ltv = (optimal * n.contractMonths) / (n.churnRate / 100)
	} else {
		// Zero churn would divide by zero; annualize instead.
		ltv = optimal * n.contractMonths * 12
	}
	ltv = utils.Round(ltv)

	ltvCac := utils.Round2(utils.SafeDiv(ltv, n.cac, 0))

	monthlyRevenue := utils.Round(n.customers * optimal)
	yearlyRevenue := monthlyRevenue * 12

	nrr := utils.Round(100 + n.expansionRevenue - n.churnRate)

	var quickRatio float64
	switch {
	case n.churnRate > 0:
		quickRatio = utils.Round2((n.expansionRevenue / 100) / (n.churnRate / 100))
	case n.expansionRevenue > 0:
		quickRatio = quickRatioInfinite
	default:
		quickRatio = 0
	}

	magic := 0.0
	if n.customers > 0 && n.cac > 0 {
		magic = (yearlyRevenue - yearlyRevenue*0.8) / (n.cac * n.customers * 0.25)
	}
	magic = utils.Round2(magic)

	ruleOf40 := 100 - n.churnRate
	if yearlyRevenue > 0 {
		ruleOf40 = (yearlyRevenue/(yearlyRevenue*0.8)-1)*100 + (100 - n.churnRate)
	}
	ruleOf40 = utils.Round(ruleOf40)

	payback := utils.Round2(utils.SafeDiv(n.cac, optimal, 0))

	tam := n.marketSize * optimal * 12
	marketShare := utils.Round2(utils.SafeDiv(yearlyRevenue, tam, 0) * 100)

	priceIncrease := 0.0
	if n.currentPrice > 0 {
		priceIncrease = utils.Round(((optimal - n.currentPrice) / n.currentPrice) * 100)
	}

	result := models.CalculationResult{
		Metrics: models.Metrics{
			OptimalPrice:         optimal,
			LTV:                  ltv,
			LTVCACRatio:          ltvCac,
			MonthlyRevenue:       monthlyRevenue,
			YearlyRevenue:        yearlyRevenue,
			NRR:                  nrr,
			QuickRatio:           quickRatio,
			MagicNumber:          magic,
			RuleOf40:             ruleOf40,
			PaybackPeriod:        payback,
			MarketShare:          marketShare,
			PriceIncreasePercent: priceIncrease,
		},
		Tiers:          buildTiers(optimal),
		ProjectionData: buildProjection(n, optimal),
	}

	if cs.mode == ModeEnhanced {
		result.CompetitorData = buildCompetitorRows(n, optimal, ltv)
		result.MetricsRadar = buildRadar(n, result.Metrics)
		result.Insights = buildInsights(n, result.Metrics)
	}

	return result
}

// CacheKey returns a stable key for a set of inputs under the current mode.
// Compute is deterministic, so repeated requests can be served from cache.
func (cs *CalculatorService) CacheKey(in models.CalculatorInputs) string {
	n := normalize(in)
	raw, _ := json.Marshal(n.asSlice())
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("calc:%s:%s", cs.mode, hex.EncodeToString(sum[:8]))
}

func (n normalizedInputs) asSlice() []float64 {
	return []float64{
		n.currentPrice, n.competitorPrice, n.customers, n.churnRate,
		n.cac, n.contractMonths, n.expansionRevenue, n.marketSize,
	}
}

// Tier multipliers off the optimal price. Feature lists, segments and
// adoption figures are static copy, not computed.
func buildTiers(optimal float64) models.PricingTiers {
	return models.PricingTiers{
		Starter: models.PricingTier{
			Name:  "Starter",
			Price: utils.Round(optimal * 0.6),
			Features: []string{
				"Core features",
				"Email support",
				"Up to 5 users",
			},
			Segment:  "Small teams getting started",
			Adoption: "40%",
		},
		Professional: models.PricingTier{
			Name:  "Professional",
			Price: utils.Round(optimal),
			Features: []string{
				"Everything in Starter",
				"Advanced analytics",
				"Priority support",
				"Up to 25 users",
			},
			Segment:     "Growing companies",
			Adoption:    "45%",
			Recommended: true,
		},
		Enterprise: models.PricingTier{
			Name:  "Enterprise",
			Price: utils.Round(optimal * 2.2),
			Features: []string{
				"Everything in Professional",
				"Dedicated success manager",
				"Custom integrations",
				"Unlimited users",
				"SLA guarantee",
			},
			Segment:  "Large organizations",
			Adoption: "15%",
		},
	}
}

// buildProjection compounds monthly growth (expansion minus churn) over
// months 0 through 12. Always 13 points.
func buildProjection(n normalizedInputs, optimal float64) []models.ProjectionPoint {
	growth := 1 + (n.expansionRevenue/100 - n.churnRate/100)
	points := make([]models.ProjectionPoint, 0, 13)

	for month := 0; month <= 12; month++ {
		customers := utils.Round(n.customers * math.Pow(growth, float64(month)))
		if customers < 0 {
			customers = 0
		}
		revenue := customers * optimal
		points = append(points, models.ProjectionPoint{
			Month:     month,
			Revenue:   revenue,
			Customers: int(customers),
			MRR:       revenue,
		})
	}

	return points
}

func buildCompetitorRows(n normalizedInputs, optimal, optimalLTV float64) []models.CompetitorRow {
	ltvAt := func(price float64) float64 {
		if n.churnRate > 0 {
			return utils.Round((price * n.contractMonths) / (n.churnRate / 100))
		}
		return utils.Round(price * n.contractMonths * 12)
	}

	maxPrice := math.Max(n.currentPrice, math.Max(n.competitorPrice, optimal))
	position := func(price float64) float64 {
		return utils.ClampScore(utils.Round(utils.SafeDiv(price, maxPrice, 0) * 100))
	}

	return []models.CompetitorRow{
		{
			Metric:     "Price",
			You:        n.currentPrice,
			Competitor: n.competitorPrice,
			Optimal:    optimal,
		},
		{
			Metric:     "LTV",
			You:        ltvAt(n.currentPrice),
			Competitor: ltvAt(n.competitorPrice),
			Optimal:    optimalLTV,
		},
		{
			Metric:     "Market Position",
			You:        position(n.currentPrice),
			Competitor: position(n.competitorPrice),
			Optimal:    position(optimal),
		},
	}
}

// buildRadar normalizes six health scores into [0, 100] against fixed
// benchmarks. A 3:1 LTV:CAC scores 60, a 12-month payback scores 40.
func buildRadar(n normalizedInputs, m models.Metrics) []models.RadarMetric {
	return []models.RadarMetric{
		{Metric: "LTV:CAC", Value: utils.ClampScore(utils.Round(m.LTVCACRatio * 20)), Benchmark: 60},
		{Metric: "NRR", Value: utils.ClampScore(utils.Round(m.NRR)), Benchmark: 100},
		{Metric: "Quick Ratio", Value: utils.ClampScore(utils.Round(m.QuickRatio * 25)), Benchmark: 50},
		{Metric: "Rule of 40", Value: utils.ClampScore(utils.Round(m.RuleOf40)), Benchmark: 40},
		{Metric: "Payback", Value: utils.ClampScore(utils.Round(100 - m.PaybackPeriod*5)), Benchmark: 60},
		{Metric: "Growth", Value: utils.ClampScore(utils.Round((n.expansionRevenue - n.churnRate) * 10)), Benchmark: 40},
	}
}

// buildInsights evaluates the advisory rules in a fixed order. Each rule
// fires at most one message; rule one always fires exactly one of its two
// branches.
func buildInsights(n normalizedInputs, m models.Metrics) []models.Insight {
	insights := make([]models.Insight, 0, 4)

	if m.LTVCACRatio < 3 {
		insights = append(insights, models.Insight{
			Type:    models.InsightWarning,
			Title:   "LTV:CAC Ratio Below Target",
			Message: fmt.Sprintf("Your LTV:CAC ratio is %.2f, below the healthy 3.0 threshold. Reduce acquisition cost or improve retention.", m.LTVCACRatio),
		})
	} else {
		insights = append(insights, models.Insight{
			Type:    models.InsightSuccess,
			Title:   "Healthy Unit Economics",
			Message: fmt.Sprintf("Your LTV:CAC ratio of %.2f indicates strong unit economics.", m.LTVCACRatio),
		})
	}

	if m.OptimalPrice > n.currentPrice*1.2 {
		insights = append(insights, models.Insight{
			Type:    models.InsightOpportunity,
			Title:   "Significant Pricing Opportunity",
			Message: fmt.Sprintf("You are underpricing by roughly %.0f%%. Consider moving toward the recommended price.", m.PriceIncreasePercent),
		})
	}

	if m.NRR > 110 {
		insights = append(insights, models.Insight{
			Type:    models.InsightSuccess,
			Title:   "Excellent Net Revenue Retention",
			Message: fmt.Sprintf("Your NRR of %.0f%% means expansion outpaces churn by a wide margin.", m.NRR),
		})
	}

	if m.RuleOf40 > 40 {
		insights = append(insights, models.Insight{
			Type:    models.InsightSuccess,
			Title:   "Rule of 40 Achieved",
			Message: fmt.Sprintf("Your combined growth and margin score of %.0f clears the 40-point bar.", m.RuleOf40),
		})
	}

	return insights
}
