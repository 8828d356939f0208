package models

import (
	"bytes"
	"strconv"
	"strings"
)

// Number is a numeric form-field value. The pricing form submits free text, so
// JSON may carry a number, a numeric string, an empty string, or null. Anything
// non-numeric is treated as unset; unmarshalling never fails.
type Number struct {
	Value float64
	Set   bool
}

// Num wraps a known value.
func Num(v float64) Number {
	return Number{Value: v, Set: true}
}

// Or returns the value, or def when the field is unset.
func (n Number) Or(def float64) float64 {
	if !n.Set {
		return def
	}
	return n.Value
}

func (n *Number) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "" || s == "null" {
		*n = Number{}
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*n = Number{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Value: v, Set: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// CalculatorInputs holds the business inputs of a pricing calculation.
// Every field is optional; the engine substitutes defaults for unset fields.
type CalculatorInputs struct {
	CurrentPrice          Number `json:"current_price"`
	CompetitorPrice       Number `json:"competitor_price"`
	Customers             Number `json:"customers"`
	ChurnRate             Number `json:"churn_rate"`
	CAC                   Number `json:"cac"`
	AverageContractLength Number `json:"average_contract_length"`
	ExpansionRevenue      Number `json:"expansion_revenue"`
	MarketSize            Number `json:"market_size"`
}

// Metrics are the derived SaaS metrics. Currency fields are rounded to whole
// units, ratio fields to 2 decimals, whole-percent fields to integers.
type Metrics struct {
	OptimalPrice         float64 `json:"optimal_price"`
	LTV                  float64 `json:"ltv"`
	LTVCACRatio          float64 `json:"ltv_cac_ratio"`
	MonthlyRevenue       float64 `json:"monthly_revenue"`
	YearlyRevenue        float64 `json:"yearly_revenue"`
	NRR                  float64 `json:"nrr"`
	QuickRatio           float64 `json:"quick_ratio"`
	MagicNumber          float64 `json:"magic_number"`
	RuleOf40             float64 `json:"rule_of_40"`
	PaybackPeriod        float64 `json:"payback_period_months"`
	MarketShare          float64 `json:"market_share_percent"`
	PriceIncreasePercent float64 `json:"price_increase_percent"`
}

// PricingTier is one of the three recommended plans.
type PricingTier struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Features    []string `json:"features"`
	Segment     string   `json:"segment"`
	Adoption    string   `json:"projected_adoption"`
	Recommended bool     `json:"recommended"`
}

// PricingTiers always carries exactly starter, professional, enterprise.
// Professional is always the recommended plan.
type PricingTiers struct {
	Starter      PricingTier `json:"starter"`
	Professional PricingTier `json:"professional"`
	Enterprise   PricingTier `json:"enterprise"`
}

// ProjectionPoint is one month of the 12-month revenue projection (month 0-12).
type ProjectionPoint struct {
	Month     int     `json:"month"`
	Revenue   float64 `json:"revenue"`
	Customers int     `json:"customers"`
	MRR       float64 `json:"mrr"`
}

// CompetitorRow compares the user, their competitor, and the optimal price
// on a single metric.
type CompetitorRow struct {
	Metric     string  `json:"metric"`
	You        float64 `json:"you"`
	Competitor float64 `json:"competitor"`
	Optimal    float64 `json:"optimal"`
}

// RadarMetric is a 0-100 normalized score against a fixed benchmark.
type RadarMetric struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Benchmark float64 `json:"benchmark"`
}

// Insight severity levels.
const (
	InsightWarning     = "warning"
	InsightSuccess     = "success"
	InsightOpportunity = "opportunity"
)

// Insight is a rule-triggered advisory message.
type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// CalculationResult is the full, immutable output of one engine run.
// Competitor rows, radar, and insights are only populated in enhanced mode.
type CalculationResult struct {
	Metrics        Metrics           `json:"metrics"`
	Tiers          PricingTiers      `json:"tiers"`
	ProjectionData []ProjectionPoint `json:"projection_data"`
	CompetitorData []CompetitorRow   `json:"competitor_data,omitempty"`
	MetricsRadar   []RadarMetric     `json:"metrics_radar,omitempty"`
	Insights       []Insight         `json:"insights,omitempty"`
}
