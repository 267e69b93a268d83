package features

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/stat"

	"house-price-pipeline/models"
)

func fitListings() []*models.Listing {
	types := []string{"terraced", "flats", "detached", "semi_detached"}
	out := make([]*models.Listing, 12)
	for i := range out {
		out[i] = &models.Listing{
			Location:     fmt.Sprintf("LS%d", i%3+1),
			PropertyType: types[i%len(types)],
			Bedrooms:     2 + i%4,
			Bathrooms:    1 + i%2,
			Receptions:   1 + i%3,
			FloorArea:    800 + float64(i)*55,
			Price:        150000 + float64(i)*22000,
		}
	}
	return out
}

func TestApplyDeterministic(t *testing.T) {
	params, err := Fit(fitListings())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	rec := Record{
		Location: "LS2", PropertyType: "flats",
		Bedrooms: 3, Bathrooms: 1, Receptions: 2, FloorArea: 900,
	}

	a, err := Apply(rec, params)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	b, err := Apply(rec, params)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !reflect.DeepEqual(a.Values, b.Values) {
		t.Errorf("Apply is not deterministic:\n%v\n%v", a.Values, b.Values)
	}
}

func TestApplyDoesNotMutateParams(t *testing.T) {
	params, err := Fit(fitListings())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	before := fmt.Sprintf("%+v %+v %+v %+v %+v",
		*params.Location, *params.PropertyType, params.FloorArea, params.Price, *params.Scaler)

	rec := Record{
		Location: "somewhere-new", PropertyType: "castle",
		Bedrooms: 9, Bathrooms: 4, Receptions: 3, FloorArea: 5000,
	}
	if _, err := Apply(rec, params); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	after := fmt.Sprintf("%+v %+v %+v %+v %+v",
		*params.Location, *params.PropertyType, params.FloorArea, params.Price, *params.Scaler)
	if before != after {
		t.Errorf("Apply mutated params:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestApplyFlagsFallbackCategories(t *testing.T) {
	params, err := Fit(fitListings())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	known := Record{Location: "LS1", PropertyType: "terraced", Bedrooms: 3, Bathrooms: 1, Receptions: 1, FloorArea: 900}
	vec, err := Apply(known, params)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if vec.UsedFallback {
		t.Error("known categories flagged as fallback")
	}

	unseen := known
	unseen.Location = "ZZ99"
	vec, err = Apply(unseen, params)
	if err != nil {
		t.Fatalf("Apply with unseen location: %v", err)
	}
	if !vec.UsedFallback {
		t.Error("unseen location not flagged as fallback")
	}
}

func TestApplyVectorIsFinite(t *testing.T) {
	params, err := Fit(fitListings())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	rec := Record{Location: "LS3", PropertyType: "detached", Bedrooms: 4, Bathrooms: 2, Receptions: 2, FloorArea: 1200}
	vec, err := Apply(rec, params)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(vec.Values) != len(featureNames) {
		t.Fatalf("vector length %d, want %d", len(vec.Values), len(featureNames))
	}
	for i, v := range vec.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("feature %s is %v", featureNames[i], v)
		}
	}
}

func TestApplyRejectsOutOfDomainFloorArea(t *testing.T) {
	params, err := Fit(fitListings())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	rec := Record{Location: "LS1", PropertyType: "terraced", Bedrooms: 3, Bathrooms: 1, Receptions: 1, FloorArea: -50}
	if _, err := Apply(rec, params); err == nil {
		t.Error("expected a transform error for a negative floor area")
	}
}

func TestTransformDatasetTargetIsUnitScale(t *testing.T) {
	listings := fitListings()
	params, err := Fit(listings)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	_, y, err := TransformDataset(listings, params)
	if err != nil {
		t.Fatalf("TransformDataset: %v", err)
	}

	// Raw prices are O(10^5); the training targets must be standardised so
	// gradient descent sees unit-scale values.
	mean, std := stat.MeanStdDev(y, nil)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("target mean %.6f, want 0", mean)
	}
	if math.Abs(std-1) > 1e-9 {
		t.Errorf("target std %.6f, want 1", std)
	}
	for i, v := range y {
		if math.Abs(v) > 10 {
			t.Errorf("target %d is %.2f, far outside unit scale", i, v)
		}
	}
}

func TestTransformDatasetShapes(t *testing.T) {
	listings := fitListings()
	params, err := Fit(listings)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	X, y, err := TransformDataset(listings, params)
	if err != nil {
		t.Fatalf("TransformDataset: %v", err)
	}
	if len(X) != len(listings) || len(y) != len(listings) {
		t.Fatalf("shapes: %d×? features, %d targets, want %d each", len(X), len(y), len(listings))
	}
	for i, row := range X {
		if len(row) != len(featureNames) {
			t.Errorf("row %d has %d features, want %d", i, len(row), len(featureNames))
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			t.Errorf("target %d is %v", i, y[i])
		}
	}
}
