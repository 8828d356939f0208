package models

import "time"

// Analytics event kinds.
const (
	EventKindCalculation   = "calculation"
	EventKindCheckoutClick = "checkout_click"
)

// CalculationEvent is the summary recorded for every completed calculation
// or checkout click. Country/city come from GeoIP resolution of the caller.
type CalculationEvent struct {
	Kind               string    `json:"kind" bson:"kind"`
	Timestamp          time.Time `json:"timestamp" bson:"timestamp"`
	RecommendedPrice   float64   `json:"recommended_price" bson:"recommended_price"`
	CurrentPrice       float64   `json:"current_price" bson:"current_price"`
	Customers          int       `json:"customers" bson:"customers"`
	PriceChangePercent float64   `json:"price_change_percent" bson:"price_change_percent"`
	Country            string    `json:"country,omitempty" bson:"country,omitempty"`
	City               string    `json:"city,omitempty" bson:"city,omitempty"`
}

// AnalyticsSummary aggregates recorded events.
type AnalyticsSummary struct {
	TotalCalculations     int       `json:"total_calculations"`
	CheckoutClicks        int       `json:"checkout_clicks"`
	AvgRecommendedPrice   float64   `json:"avg_recommended_price"`
	AvgPriceChangePercent float64   `json:"avg_price_change_percent"`
	Since                 time.Time `json:"since"`
}

// CountryCount is one row of the by-country breakdown.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}
