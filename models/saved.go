package models

import "time"

// SavedCalculation is a named input/result snapshot in the user's library.
type SavedCalculation struct {
	ID        string            `json:"id" bson:"id"`
	Name      string            `json:"name" bson:"name"`
	Inputs    CalculatorInputs  `json:"inputs" bson:"inputs"`
	Results   CalculationResult `json:"results" bson:"results"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// LibraryExport is the downloadable document of every saved entry.
type LibraryExport struct {
	ExportedAt   time.Time          `json:"exported_at"`
	Count        int                `json:"count"`
	Calculations []SavedCalculation `json:"calculations"`
}
