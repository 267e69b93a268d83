package ml

import (
	"math"
	"testing"
)

func TestEvaluatePerfectFit(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	m := Evaluate(y, y)

	if m.MSE != 0 || m.RMSE != 0 {
		t.Errorf("perfect fit: MSE %.4f RMSE %.4f, want 0", m.MSE, m.RMSE)
	}
	if m.R2 != 1 {
		t.Errorf("perfect fit: R² %.4f, want 1", m.R2)
	}
}

func TestEvaluateKnownValues(t *testing.T) {
	yTrue := []float64{1, 2, 3}
	yPred := []float64{2, 2, 2}

	m := Evaluate(yTrue, yPred)

	// Residuals: -1, 0, 1 → MSE 2/3; total SS around mean 2 is also 2.
	if want := 2.0 / 3.0; math.Abs(m.MSE-want) > 1e-12 {
		t.Errorf("MSE %.6f, want %.6f", m.MSE, want)
	}
	if want := math.Sqrt(2.0 / 3.0); math.Abs(m.RMSE-want) > 1e-12 {
		t.Errorf("RMSE %.6f, want %.6f", m.RMSE, want)
	}
	if want := 0.0; math.Abs(m.R2-want) > 1e-12 {
		t.Errorf("R² %.6f, want %.6f", m.R2, want)
	}
}

func TestEvaluateEmptyInput(t *testing.T) {
	m := Evaluate(nil, nil)
	if m.MSE != 0 || m.RMSE != 0 || m.R2 != 0 {
		t.Errorf("empty input: %+v, want zeros", m)
	}
}

func TestMetricsFinite(t *testing.T) {
	if !(Metrics{MSE: 1, RMSE: 1, R2: 0.5}).Finite() {
		t.Error("real metrics reported non-finite")
	}
	if (Metrics{MSE: math.NaN()}).Finite() {
		t.Error("NaN MSE reported finite")
	}
	if (Metrics{RMSE: math.Inf(1)}).Finite() {
		t.Error("infinite RMSE reported finite")
	}
}
