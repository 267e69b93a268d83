package models

import "time"

// RawListing holds unprocessed scraped data directly from the browser.
// Every field is kept as the raw string the page showed; parsing and
// validation happen in the cleaner. This is written to CSV before any
// cleaning or transformation.
type RawListing struct {
	URL             string
	RawPropertyType string
	RawPrice        string
	RawBedrooms     string
	RawBathrooms    string
	RawReceptions   string
	RawFloorArea    string
	DisplayAddress  string
	Postcode        string
	Outcode         string
	Latitude        string
	Longitude       string
	Description     string
	ScrapedAt       time.Time
}

// Listing is the cleaned, validated record ready for PostgreSQL storage
// and model training. Location is the outcode (postcode district) when
// available, falling back to the display address.
type Listing struct {
	ID           int64
	Location     string
	PropertyType string
	Bedrooms     int
	Bathrooms    int
	Receptions   int
	FloorArea    float64
	Price        float64
	Postcode     string
	URL          string
	CreatedAt    time.Time
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	TotalListings  int
	AveragePrice   float64
	MedianPrice    float64
	MinPrice       float64
	MaxPrice       float64
	MostExpensive  *Listing
	ListingsByArea map[string]int
	ListingsByType map[string]int
}
