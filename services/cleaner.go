package services

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gonum.org/v1/gonum/stat"

	"house-price-pipeline/models"
	"house-price-pipeline/utils"
)

// ErrInsufficientData is returned when too few rows survive cleaning to be
// worth training on.
var ErrInsufficientData = errors.New("cleaner: insufficient data after cleaning")

// MinDatasetSize is the smallest cleaned dataset the pipeline will accept.
const MinDatasetSize = 10

// UnknownCategory is the sentinel used when a categorical field is missing.
const UnknownCategory = "unknown"

// iqrFenceK is the multiplier for the interquartile-range outlier fence.
const iqrFenceK = 1.5

var (
	// priceRegexp captures numeric price values after currency stripping
	priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	// countRegexp captures a leading integer ("3 beds" → 3)
	countRegexp = regexp.MustCompile(`(\d+)`)
	// areaRegexp captures a floor area in sq ft or sq m
	areaRegexp = regexp.MustCompile(`([\d,]+(?:\.\d+)?)\s*(sq\.?\s*ft|ft²|sq\.?\s*m|m²)?`)
)

// Cleaner transforms RawListings into clean, validated Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean processes raw listings and returns the cleaned dataset.
// Rows without a parsable price are dropped (price is the training target),
// missing categoricals are imputed with the "unknown" sentinel, missing
// numeric fields with the column median, and rows whose price or floor area
// falls outside the IQR fence are removed. Returns ErrInsufficientData when
// fewer than MinDatasetSize rows survive.
func (c *Cleaner) Clean(raw []*models.RawListing) ([]*models.Listing, error) {
	seen := make(map[string]struct{})
	parsed := make([]*models.Listing, 0, len(raw))

	var droppedNoURL, droppedDup, droppedNoPrice int

	for _, r := range raw {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			droppedNoURL++
			c.logger.Debug("[cleaner] Dropping listing with empty URL: %s", r.DisplayAddress)
			continue
		}

		if _, dup := seen[url]; dup {
			droppedDup++
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		price := c.parsePrice(r.RawPrice)
		if price <= 0 {
			droppedNoPrice++
			c.logger.Debug("[cleaner] Dropping listing with no price: %s", url)
			continue
		}

		parsed = append(parsed, &models.Listing{
			Location:     c.location(r),
			PropertyType: normaliseCategory(r.RawPropertyType),
			Bedrooms:     parseCount(r.RawBedrooms),
			Bathrooms:    parseCount(r.RawBathrooms),
			Receptions:   parseCount(r.RawReceptions),
			FloorArea:    parseArea(r.RawFloorArea),
			Price:        price,
			Postcode:     normaliseText(r.Postcode),
			URL:          url,
			CreatedAt:    time.Now(),
		})
	}

	c.imputeNumerics(parsed)
	result, droppedOutlier := c.dropOutliers(parsed)

	c.logger.Info("[cleaner] Cleaned %d → %d listings (no URL: %d, dup: %d, no price: %d, outlier: %d)",
		len(raw), len(result), droppedNoURL, droppedDup, droppedNoPrice, droppedOutlier)

	if len(result) < MinDatasetSize {
		return nil, ErrInsufficientData
	}
	return result, nil
}

// location prefers the postcode district as the location category; listings
// scraped without one fall back to the display address. Both forms are
// stored uppercase so serving-time input folds to the same category.
func (c *Cleaner) location(r *models.RawListing) string {
	if out := normaliseCategory(r.Outcode); out != UnknownCategory {
		return strings.ToUpper(out)
	}
	if addr := normaliseCategory(r.DisplayAddress); addr != UnknownCategory {
		return strings.ToUpper(addr)
	}
	return UnknownCategory
}

// imputeNumerics fills zero-valued numeric fields with the column median.
// Returns the number of imputed values.
func (c *Cleaner) imputeNumerics(listings []*models.Listing) int {
	if len(listings) == 0 {
		return 0
	}

	medBeds := median(collect(listings, func(l *models.Listing) float64 { return float64(l.Bedrooms) }))
	medBaths := median(collect(listings, func(l *models.Listing) float64 { return float64(l.Bathrooms) }))
	medRecepts := median(collect(listings, func(l *models.Listing) float64 { return float64(l.Receptions) }))
	medArea := median(collect(listings, func(l *models.Listing) float64 { return l.FloorArea }))

	imputed := 0
	for _, l := range listings {
		if l.Bedrooms == 0 {
			l.Bedrooms = int(medBeds)
			imputed++
		}
		if l.Bathrooms == 0 {
			l.Bathrooms = int(medBaths)
			imputed++
		}
		if l.Receptions == 0 {
			l.Receptions = int(medRecepts)
			imputed++
		}
		if l.FloorArea <= 0 {
			l.FloorArea = medArea
			imputed++
		}
	}

	if imputed > 0 {
		c.logger.Info("[cleaner] Imputed %d missing numeric values with column medians", imputed)
	}
	return imputed
}

// dropOutliers removes rows whose price or floor area lies outside
// [Q1 − k·IQR, Q3 + k·IQR].
func (c *Cleaner) dropOutliers(listings []*models.Listing) ([]*models.Listing, int) {
	if len(listings) < 4 {
		return listings, 0
	}

	priceLo, priceHi := iqrFence(collect(listings, func(l *models.Listing) float64 { return l.Price }))
	areaLo, areaHi := iqrFence(collect(listings, func(l *models.Listing) float64 { return l.FloorArea }))

	kept := make([]*models.Listing, 0, len(listings))
	dropped := 0
	for _, l := range listings {
		if l.Price < priceLo || l.Price > priceHi {
			dropped++
			c.logger.Debug("[cleaner] Price outlier dropped: £%.0f (%s)", l.Price, l.URL)
			continue
		}
		if l.FloorArea < areaLo || l.FloorArea > areaHi {
			dropped++
			c.logger.Debug("[cleaner] Floor-area outlier dropped: %.0f (%s)", l.FloorArea, l.URL)
			continue
		}
		kept = append(kept, l)
	}
	return kept, dropped
}

// parsePrice extracts a numeric price from strings like "£425,000" or
// "Offers over £1,200,000". Returns 0 when no price is present.
func (c *Cleaner) parsePrice(raw string) float64 {
	cleaned := strings.ReplaceAll(strings.ToLower(raw), ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

// parseCount extracts a small integer count ("3 beds" → 3).
func parseCount(raw string) int {
	match := countRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseArea extracts a floor area, converting square metres to square feet.
func parseArea(raw string) float64 {
	raw = strings.ToLower(strings.ReplaceAll(raw, ",", ""))
	match := areaRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil || val <= 0 {
		return 0
	}
	unit := match[2]
	if strings.Contains(unit, "m") && !strings.Contains(unit, "ft") {
		val *= 10.7639 // sq m → sq ft
	}
	return val
}

// iqrFence returns the lower and upper outlier fence for the given values.
func iqrFence(values []float64) (float64, float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	return q1 - iqrFenceK*iqr, q3 + iqrFenceK*iqr
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func collect(listings []*models.Listing, f func(*models.Listing) float64) []float64 {
	out := make([]float64, len(listings))
	for i, l := range listings {
		out[i] = f(l)
	}
	return out
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// normaliseCategory lowercases and trims a categorical value, substituting
// the "unknown" sentinel for empty strings.
func normaliseCategory(s string) string {
	s = strings.ToLower(normaliseText(s))
	if s == "" || s == "n/a" {
		return UnknownCategory
	}
	return s
}
