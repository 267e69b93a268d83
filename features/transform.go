package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"house-price-pipeline/models"
)

// Record is the raw property-feature input to the transform pipeline, both
// at training and at serving time.
type Record struct {
	Location     string
	PropertyType string
	Bedrooms     int
	Bathrooms    int
	Receptions   int
	FloorArea    float64
}

// Vector is the numeric encoding of a Record. UsedFallback is true when any
// categorical field resolved to the unknown fallback code, which downgrades
// prediction confidence.
type Vector struct {
	Values       []float64
	UsedFallback bool
}

// Params bundles every fitted transform parameter. Fitted once on the
// training set; Apply treats it as read-only so training-time and
// serving-time encodings are bit-identical.
type Params struct {
	Location     *Encoder
	PropertyType *Encoder
	FloorArea    BoxCox
	Price        BoxCox
	Scaler       *Scaler
	FeatureNames []string

	// TargetMean and TargetStd standardise the Box-Cox transformed price.
	// Models train on unit-scale targets; predictions are mapped back
	// through these before the Box-Cox inversion.
	TargetMean float64
	TargetStd  float64
}

// TransformError reports a value the fitted transform cannot encode.
type TransformError struct {
	Field  string
	Reason string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform: %s: %s", e.Field, e.Reason)
}

// featureNames is the fixed column order of every feature vector.
var featureNames = []string{
	"location", "property_type", "bedrooms", "bathrooms", "receptions", "floor_area",
}

// Fit learns encoders, Box-Cox lambdas, and scaler statistics from the
// cleaned dataset. The returned Params must be stored with the trained
// model and reused unmodified at prediction time.
func Fit(listings []*models.Listing) (*Params, error) {
	if len(listings) < 2 {
		return nil, fmt.Errorf("features: need at least 2 listings to fit, got %d", len(listings))
	}

	locations := make([]string, len(listings))
	types := make([]string, len(listings))
	areas := make([]float64, len(listings))
	prices := make([]float64, len(listings))
	for i, l := range listings {
		locations[i] = l.Location
		types[i] = l.PropertyType
		areas[i] = l.FloorArea
		prices[i] = l.Price
	}

	p := &Params{
		Location:     FitEncoder(locations),
		PropertyType: FitEncoder(types),
		FeatureNames: featureNames,
	}

	var err error
	if p.FloorArea, err = FitBoxCox(areas); err != nil {
		return nil, fmt.Errorf("features: fit floor area: %w", err)
	}
	if p.Price, err = FitBoxCox(prices); err != nil {
		return nil, fmt.Errorf("features: fit price: %w", err)
	}

	transformed := make([]float64, len(prices))
	for i, v := range prices {
		transformed[i] = p.Price.Apply(v)
	}
	p.TargetMean, p.TargetStd = stat.MeanStdDev(transformed, nil)
	if p.TargetStd == 0 || math.IsNaN(p.TargetStd) {
		p.TargetStd = 1
	}

	rows := make([][]float64, len(listings))
	for i, l := range listings {
		row, rerr := rawRow(RecordFromListing(l), p)
		if rerr != nil {
			return nil, rerr
		}
		rows[i] = row
	}
	if p.Scaler, err = FitScaler(rows); err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	return p, nil
}

// Apply encodes a raw record with previously fitted parameters. It is pure:
// params are never mutated, and identical inputs yield identical vectors.
func Apply(rec Record, p *Params) (Vector, error) {
	loc := p.Location.Resolve(rec.Location)
	typ := p.PropertyType.Resolve(rec.PropertyType)

	row, err := rawRow(rec, p)
	if err != nil {
		return Vector{}, err
	}

	return Vector{
		Values:       p.Scaler.Transform(row),
		UsedFallback: !loc.Known || !typ.Known,
	}, nil
}

// TransformDataset encodes every listing and maps the target prices through
// the Box-Cox transform and the target standardisation, producing the
// matrices the trainer consumes.
func TransformDataset(listings []*models.Listing, p *Params) ([][]float64, []float64, error) {
	X := make([][]float64, len(listings))
	y := make([]float64, len(listings))
	for i, l := range listings {
		vec, err := Apply(RecordFromListing(l), p)
		if err != nil {
			return nil, nil, err
		}
		X[i] = vec.Values

		ty := p.Price.Apply(l.Price)
		if math.IsNaN(ty) || math.IsInf(ty, 0) {
			return nil, nil, &TransformError{Field: "price", Reason: fmt.Sprintf("non-finite transform of %v", l.Price)}
		}
		y[i] = (ty - p.TargetMean) / p.TargetStd
	}
	return X, y, nil
}

// RecordFromListing projects a cleaned listing onto the transform input.
func RecordFromListing(l *models.Listing) Record {
	return Record{
		Location:     l.Location,
		PropertyType: l.PropertyType,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Receptions:   l.Receptions,
		FloorArea:    l.FloorArea,
	}
}

// rawRow builds the unscaled numeric row for a record.
func rawRow(rec Record, p *Params) ([]float64, error) {
	area := p.FloorArea.Apply(rec.FloorArea)
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return nil, &TransformError{
			Field:  "floor_area",
			Reason: fmt.Sprintf("value %v is outside the fitted transform's domain", rec.FloorArea),
		}
	}

	return []float64{
		float64(p.Location.Resolve(rec.Location).Index),
		float64(p.PropertyType.Resolve(rec.PropertyType).Index),
		float64(rec.Bedrooms),
		float64(rec.Bathrooms),
		float64(rec.Receptions),
		area,
	}, nil
}
