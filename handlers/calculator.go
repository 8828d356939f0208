package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pricelens/models"
	"pricelens/services"
)

// CalculatorHandlers manages pricing calculation endpoints
type CalculatorHandlers struct {
	calcService *services.CalculatorService
	cache       *services.CacheService
	analytics   *services.AnalyticsService
}

func NewCalculatorHandlers(calcService *services.CalculatorService, cache *services.CacheService, analytics *services.AnalyticsService) *CalculatorHandlers {
	return &CalculatorHandlers{
		calcService: calcService,
		cache:       cache,
		analytics:   analytics,
	}
}

// Compute runs the pricing engine on a JSON input body. Every field of the
// body is optional; unparseable values fall back to engine defaults.
func (ch *CalculatorHandlers) Compute(c echo.Context) error {
	var inputs models.CalculatorInputs
	if err := c.Bind(&inputs); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	return ch.respond(c, inputs)
}

// ComputeQuery is the GET variant for embed widgets that cannot POST. Inputs
// arrive as query parameters with the same names as the JSON fields.
func (ch *CalculatorHandlers) ComputeQuery(c echo.Context) error {
	inputs := models.CalculatorInputs{
		CurrentPrice:          queryNumber(c, "current_price"),
		CompetitorPrice:       queryNumber(c, "competitor_price"),
		Customers:             queryNumber(c, "customers"),
		ChurnRate:             queryNumber(c, "churn_rate"),
		CAC:                   queryNumber(c, "cac"),
		AverageContractLength: queryNumber(c, "average_contract_length"),
		ExpansionRevenue:      queryNumber(c, "expansion_revenue"),
		MarketSize:            queryNumber(c, "market_size"),
	}

	return ch.respond(c, inputs)
}

func (ch *CalculatorHandlers) respond(c echo.Context, inputs models.CalculatorInputs) error {
	key := ch.calcService.CacheKey(inputs)

	if cached, found := ch.cache.GetResult(key); found {
		ch.analytics.RecordCalculation(c.RealIP(), inputs, cached.Metrics)
		c.Response().Header().Set("X-Cache", "HIT")
		return c.JSON(http.StatusOK, cached)
	}

	result := ch.calcService.Compute(inputs)
	ch.cache.SetResult(key, &result)

	ch.analytics.RecordCalculation(c.RealIP(), inputs, result.Metrics)

	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSON(http.StatusOK, result)
}

func queryNumber(c echo.Context, name string) models.Number {
	raw := c.QueryParam(name)
	if raw == "" {
		return models.Number{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Ignoring non-numeric query param %s=%q", name, raw)
		return models.Number{}
	}
	return models.Num(v)
}
