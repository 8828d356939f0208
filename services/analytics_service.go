package services

import (
	"context"
	"log"
	"sync"
	"time"

	"pricelens/config"
	"pricelens/models"
	"pricelens/utils"
)

// maxRecentEvents caps the in-memory event window used when MongoDB is
// unavailable.
const maxRecentEvents = 1000

// AnalyticsService records a summary event for every completed calculation
// and checkout click: recommended price, current price, customer count and
// the percentage price change, geo-tagged from the caller's IP. Events are
// kept in a bounded in-memory window and written through to MongoDB.
type AnalyticsService struct {
	cfg     *config.Config
	mongo   *MongoDBService
	geo     *utils.GeoResolver
	discord *DiscordService

	mutex       sync.RWMutex
	recent      []models.CalculationEvent
	sinceDigest int

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewAnalyticsService(cfg *config.Config, mongo *MongoDBService, geo *utils.GeoResolver, discord *DiscordService) *AnalyticsService {
	return &AnalyticsService{
		cfg:      cfg,
		mongo:    mongo,
		geo:      geo,
		discord:  discord,
		recent:   make([]models.CalculationEvent, 0),
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic Discord digest loop.
func (as *AnalyticsService) Start() {
	log.Println("Starting Analytics Service...")
	interval := as.cfg.DigestIntervalDuration()
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				as.sendDigest()
			case <-as.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

func (as *AnalyticsService) Stop() {
	as.stopOnce.Do(func() {
		close(as.stopChan)
	})
}

// RecordCalculation records the summary of one completed calculation.
func (as *AnalyticsService) RecordCalculation(ip string, inputs models.CalculatorInputs, metrics models.Metrics) {
	as.record(models.CalculationEvent{
		Kind:               models.EventKindCalculation,
		Timestamp:          time.Now(),
		RecommendedPrice:   metrics.OptimalPrice,
		CurrentPrice:       inputs.CurrentPrice.Or(0),
		Customers:          int(inputs.Customers.Or(0)),
		PriceChangePercent: metrics.PriceIncreasePercent,
	}, ip)
}

// RecordCheckoutClick records a buy-button click. The checkout flow itself is
// hosted elsewhere; this is the only part of it the backend sees.
func (as *AnalyticsService) RecordCheckoutClick(ip string) {
	as.record(models.CalculationEvent{
		Kind:      models.EventKindCheckoutClick,
		Timestamp: time.Now(),
	}, ip)
}

func (as *AnalyticsService) record(event models.CalculationEvent, ip string) {
	loc := as.geo.Lookup(ip)
	event.Country = loc.Country
	event.City = loc.City

	as.mutex.Lock()
	as.recent = append(as.recent, event)
	if len(as.recent) > maxRecentEvents {
		as.recent = as.recent[len(as.recent)-maxRecentEvents:]
	}
	as.sinceDigest++
	as.mutex.Unlock()

	if as.mongo != nil && as.mongo.enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := as.mongo.InsertCalculationEvent(ctx, &event); err != nil {
			log.Printf("Failed to persist calculation event to MongoDB: %v", err)
		}
	}
}

// Summary aggregates events since the given time. MongoDB when available,
// the in-memory window otherwise.
func (as *AnalyticsService) Summary(since time.Time) models.AnalyticsSummary {
	if as.mongo != nil && as.mongo.enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		summary, err := as.mongo.GetAnalyticsSummary(ctx, since)
		if err == nil {
			return *summary
		}
		log.Printf("Error fetching analytics summary from MongoDB: %v", err)
	}

	return as.inMemorySummary(since)
}

func (as *AnalyticsService) inMemorySummary(since time.Time) models.AnalyticsSummary {
	as.mutex.RLock()
	defer as.mutex.RUnlock()

	summary := models.AnalyticsSummary{Since: since}
	var priceSum, changeSum float64

	for _, e := range as.recent {
		if e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case models.EventKindCalculation:
			summary.TotalCalculations++
			priceSum += e.RecommendedPrice
			changeSum += e.PriceChangePercent
		case models.EventKindCheckoutClick:
			summary.CheckoutClicks++
		}
	}

	if summary.TotalCalculations > 0 {
		summary.AvgRecommendedPrice = priceSum / float64(summary.TotalCalculations)
		summary.AvgPriceChangePercent = changeSum / float64(summary.TotalCalculations)
	}

	return summary
}

// ByCountry breaks events down by resolved country.
func (as *AnalyticsService) ByCountry(since time.Time) []models.CountryCount {
	if as.mongo != nil && as.mongo.enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		counts, err := as.mongo.GetEventsByCountry(ctx, since)
		if err == nil {
			return counts
		}
		log.Printf("Error fetching country breakdown from MongoDB: %v", err)
	}

	as.mutex.RLock()
	defer as.mutex.RUnlock()

	byCountry := make(map[string]int)
	for _, e := range as.recent {
		if e.Timestamp.Before(since) {
			continue
		}
		country := e.Country
		if country == "" {
			country = "Unknown"
		}
		byCountry[country]++
	}

	counts := make([]models.CountryCount, 0, len(byCountry))
	for country, count := range byCountry {
		counts = append(counts, models.CountryCount{Country: country, Count: count})
	}
	return counts
}

// sendDigest posts a periodic activity summary to Discord when anything
// happened since the last digest.
func (as *AnalyticsService) sendDigest() {
	as.mutex.Lock()
	newEvents := as.sinceDigest
	as.sinceDigest = 0
	as.mutex.Unlock()

	if newEvents == 0 || as.discord == nil || !as.discord.enabled {
		return
	}

	summary := as.Summary(time.Now().Add(-as.cfg.DigestIntervalDuration()))
	if err := as.discord.SendDigest(summary); err != nil {
		log.Printf("Failed to send analytics digest to Discord: %v", err)
	}
}
