package storage

import "house-price-pipeline/models"

// ListingWriter is the interface any cleaned-dataset backend must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}

// ListingReader fetches the cleaned dataset back out for training and
// reporting.
type ListingReader interface {
	FetchAll() ([]*models.Listing, error)
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
