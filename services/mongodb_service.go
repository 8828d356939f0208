package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pricelens/config"
	"pricelens/models"
)

type MongoDBService struct {
	client  *mongo.Client
	db      *mongo.Database
	enabled bool
}

const (
	CollectionSavedCalculations = "saved_calculations"
	CollectionCalculationEvents = "calculation_events"
)

func NewMongoDBService(cfg *config.Config) (*MongoDBService, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB is disabled in configuration")
		return &MongoDBService{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoDB.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDB.Database)

	service := &MongoDBService{
		client:  client,
		db:      db,
		enabled: true,
	}

	if err := service.createIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create indexes: %v", err)
	}

	log.Printf("MongoDB connected successfully to database: %s", cfg.MongoDB.Database)
	return service, nil
}

func (m *MongoDBService) createIndexes(ctx context.Context) error {
	if !m.enabled {
		return nil
	}

	// Saved calculations: unique id, plus updated_at for listing
	_, err := m.db.Collection(CollectionSavedCalculations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("calc_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("updated_desc"),
		},
	})
	if err != nil {
		return err
	}

	// Calculation events: timestamp for ranges, country for breakdowns
	_, err = m.db.Collection(CollectionCalculationEvents).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("timestamp_desc"),
		},
		{
			Keys:    bson.D{{Key: "country", Value: 1}},
			Options: options.Index().SetName("country"),
		},
	})

	return err
}

func (m *MongoDBService) Close() error {
	if !m.enabled || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// ============================================
// SAVED CALCULATIONS
// ============================================

func (m *MongoDBService) UpsertSavedCalculation(ctx context.Context, calc *models.SavedCalculation) error {
	if !m.enabled {
		return nil
	}

	filter := bson.M{"id": calc.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := m.db.Collection(CollectionSavedCalculations).ReplaceOne(ctx, filter, calc, opts)
	return err
}

func (m *MongoDBService) DeleteSavedCalculation(ctx context.Context, id string) error {
	if !m.enabled {
		return nil
	}
	_, err := m.db.Collection(CollectionSavedCalculations).DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (m *MongoDBService) ListSavedCalculations(ctx context.Context) ([]models.SavedCalculation, error) {
	if !m.enabled {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	cursor, err := m.db.Collection(CollectionSavedCalculations).Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.SavedCalculation
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// ============================================
// CALCULATION EVENTS
// ============================================

func (m *MongoDBService) InsertCalculationEvent(ctx context.Context, event *models.CalculationEvent) error {
	if !m.enabled {
		return nil
	}
	_, err := m.db.Collection(CollectionCalculationEvents).InsertOne(ctx, event)
	return err
}

// GetAnalyticsSummary aggregates calculation events since a point in time.
func (m *MongoDBService) GetAnalyticsSummary(ctx context.Context, since time.Time) (*models.AnalyticsSummary, error) {
	if !m.enabled {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"timestamp": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"total_calculations": bson.M{"$sum": bson.M{"$cond": []interface{}{
				bson.M{"$eq": []interface{}{"$kind", models.EventKindCalculation}},
				1,
				0,
			}}},
			"checkout_clicks": bson.M{"$sum": bson.M{"$cond": []interface{}{
				bson.M{"$eq": []interface{}{"$kind", models.EventKindCheckoutClick}},
				1,
				0,
			}}},
			"avg_recommended_price":    bson.M{"$avg": "$recommended_price"},
			"avg_price_change_percent": bson.M{"$avg": "$price_change_percent"},
		}}},
	}

	cursor, err := m.db.Collection(CollectionCalculationEvents).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalCalculations     int     `bson:"total_calculations"`
		CheckoutClicks        int     `bson:"checkout_clicks"`
		AvgRecommendedPrice   float64 `bson:"avg_recommended_price"`
		AvgPriceChangePercent float64 `bson:"avg_price_change_percent"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{Since: since}
	if len(rows) > 0 {
		summary.TotalCalculations = rows[0].TotalCalculations
		summary.CheckoutClicks = rows[0].CheckoutClicks
		summary.AvgRecommendedPrice = rows[0].AvgRecommendedPrice
		summary.AvgPriceChangePercent = rows[0].AvgPriceChangePercent
	}

	return summary, nil
}

// GetEventsByCountry breaks recorded events down by resolved country.
func (m *MongoDBService) GetEventsByCountry(ctx context.Context, since time.Time) ([]models.CountryCount, error) {
	if !m.enabled {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"timestamp": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$country",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := m.db.Collection(CollectionCalculationEvents).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Country string `bson:"_id"`
		Count   int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	results := make([]models.CountryCount, 0, len(rows))
	for _, row := range rows {
		country := row.Country
		if country == "" {
			country = "Unknown"
		}
		results = append(results, models.CountryCount{Country: country, Count: row.Count})
	}

	return results, nil
}
