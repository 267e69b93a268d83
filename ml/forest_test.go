package ml

import (
	"math"
	"testing"
)

// stepData is a tiny dataset where the target is fully determined by the
// first feature.
func stepData() ([][]float64, []float64) {
	X := [][]float64{
		{1, 0}, {1, 1}, {2, 0}, {2, 1}, {3, 0},
		{3, 1}, {4, 0}, {4, 1}, {5, 0}, {5, 1},
	}
	y := []float64{100, 100, 200, 200, 300, 300, 400, 400, 500, 500}
	return X, y
}

func testForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        50,
		MaxDepth:        6,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

func TestForestLearnsTrainingData(t *testing.T) {
	X, y := stepData()
	f := NewForest(testForestConfig())
	f.Fit(X, y)

	for i, x := range X {
		got := f.Predict(x)
		if math.Abs(got-y[i]) > 60 {
			t.Errorf("Predict(%v) = %.1f, want within 60 of %.1f", x, got, y[i])
		}
	}
}

func TestForestReproducibleWithSeed(t *testing.T) {
	X, y := stepData()

	a := NewForest(testForestConfig())
	a.Fit(X, y)
	b := NewForest(testForestConfig())
	b.Fit(X, y)

	for _, x := range X {
		if a.Predict(x) != b.Predict(x) {
			t.Fatalf("same seed produced different predictions for %v", x)
		}
	}
}

func TestForestPredictAll(t *testing.T) {
	X, y := stepData()
	f := NewForest(testForestConfig())
	f.Fit(X, y)

	preds := f.PredictAll(X)
	if len(preds) != len(X) {
		t.Fatalf("PredictAll returned %d predictions, want %d", len(preds), len(X))
	}

	m := Evaluate(y, preds)
	if m.R2 < 0.8 {
		t.Errorf("training R² %.4f, want ≥ 0.8 on a deterministic target", m.R2)
	}
}

func TestForestUntrainedPredictsZero(t *testing.T) {
	f := NewForest(testForestConfig())
	if got := f.Predict([]float64{1, 2}); got != 0 {
		t.Errorf("untrained forest predicted %.2f, want 0", got)
	}
}
