package ml

import "math"

// Metrics holds the regression evaluation scores for one candidate model.
type Metrics struct {
	MSE  float64
	RMSE float64
	R2   float64
}

// Evaluate computes MSE, RMSE, and the coefficient of determination of the
// predictions against the true targets.
func Evaluate(yTrue, yPred []float64) Metrics {
	n := len(yTrue)
	if n == 0 {
		return Metrics{}
	}

	var mean float64
	for _, y := range yTrue {
		mean += y
	}
	mean /= float64(n)

	var ssRes, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - mean
		ssTot += t * t
	}

	mse := ssRes / float64(n)
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Metrics{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		R2:   r2,
	}
}

// Finite reports whether every score is a real number. Non-finite metrics
// mean training produced a broken model.
func (m Metrics) Finite() bool {
	for _, v := range []float64{m.MSE, m.RMSE, m.R2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
