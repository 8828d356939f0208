package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"pricelens/models"
)

// LibraryService manages the user's saved calculations. Entries live in
// memory; when MongoDB is available every write goes through to it and the
// library is reloaded from it on startup.
type LibraryService struct {
	entries map[string]*models.SavedCalculation
	mutex   sync.RWMutex
	mongo   *MongoDBService
}

func NewLibraryService(mongo *MongoDBService) *LibraryService {
	return &LibraryService{
		entries: make(map[string]*models.SavedCalculation),
		mongo:   mongo,
	}
}

// LoadFromDB populates the in-memory library from MongoDB.
func (ls *LibraryService) LoadFromDB() error {
	if ls.mongo == nil || !ls.mongo.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	saved, err := ls.mongo.ListSavedCalculations(ctx)
	if err != nil {
		return err
	}

	ls.mutex.Lock()
	for i := range saved {
		entry := saved[i]
		ls.entries[entry.ID] = &entry
	}
	ls.mutex.Unlock()

	log.Printf("Loaded %d saved calculations from MongoDB", len(saved))
	return nil
}

// Save stores a named input/result snapshot and returns the stored entry.
func (ls *LibraryService) Save(name string, inputs models.CalculatorInputs, results models.CalculationResult) *models.SavedCalculation {
	now := time.Now()
	entry := &models.SavedCalculation{
		ID:        fmt.Sprintf("calc_%d", now.UnixNano()),
		Name:      name,
		Inputs:    inputs,
		Results:   results,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ls.mutex.Lock()
	ls.entries[entry.ID] = entry
	ls.mutex.Unlock()

	ls.persist(entry)
	return entry
}

// Get retrieves a single saved calculation.
func (ls *LibraryService) Get(id string) (*models.SavedCalculation, bool) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()
	entry, exists := ls.entries[id]
	return entry, exists
}

// List returns all saved calculations, most recently updated first.
func (ls *LibraryService) List() []*models.SavedCalculation {
	ls.mutex.RLock()
	entries := make([]*models.SavedCalculation, 0, len(ls.entries))
	for _, e := range ls.entries {
		entries = append(entries, e)
	}
	ls.mutex.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries
}

// Rename changes an entry's display name.
func (ls *LibraryService) Rename(id, name string) error {
	ls.mutex.Lock()
	entry, exists := ls.entries[id]
	if !exists {
		ls.mutex.Unlock()
		return fmt.Errorf("saved calculation not found")
	}
	entry.Name = name
	entry.UpdatedAt = time.Now()
	ls.mutex.Unlock()

	ls.persist(entry)
	return nil
}

// Delete removes an entry.
func (ls *LibraryService) Delete(id string) error {
	ls.mutex.Lock()
	if _, exists := ls.entries[id]; !exists {
		ls.mutex.Unlock()
		return fmt.Errorf("saved calculation not found")
	}
	delete(ls.entries, id)
	ls.mutex.Unlock()

	if ls.mongo != nil && ls.mongo.enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ls.mongo.DeleteSavedCalculation(ctx, id); err != nil {
			log.Printf("Failed to delete saved calculation from MongoDB: %v", err)
		}
	}
	return nil
}

// Export packages every saved entry into a downloadable document.
func (ls *LibraryService) Export() models.LibraryExport {
	entries := ls.List()

	export := models.LibraryExport{
		ExportedAt:   time.Now(),
		Count:        len(entries),
		Calculations: make([]models.SavedCalculation, 0, len(entries)),
	}
	for _, e := range entries {
		export.Calculations = append(export.Calculations, *e)
	}
	return export
}

func (ls *LibraryService) persist(entry *models.SavedCalculation) {
	if ls.mongo == nil || !ls.mongo.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ls.mongo.UpsertSavedCalculation(ctx, entry); err != nil {
		log.Printf("Failed to persist saved calculation to MongoDB: %v", err)
	}
}
