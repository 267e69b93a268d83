package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BoxCox holds the fitted parameters of a Box-Cox power transform. Shift is
// added to inputs before transforming; it is non-zero only when the fitted
// column contained values ≤ 0.
type BoxCox struct {
	Lambda float64
	Shift  float64
}

const (
	lambdaMin = -2.0
	lambdaMax = 2.0
	// shiftEps keeps shifted values strictly positive.
	shiftEps = 1e-6
)

// FitBoxCox fits the transform's lambda by maximising the Box-Cox
// log-likelihood over [-2, 2] with a golden-section search.
func FitBoxCox(values []float64) (BoxCox, error) {
	if len(values) < 2 {
		return BoxCox{}, fmt.Errorf("boxcox: need at least 2 values, got %d", len(values))
	}

	var shift float64
	min := values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
	}
	if min <= 0 {
		shift = 1 - min + shiftEps
	}

	shifted := make([]float64, len(values))
	for i, v := range values {
		shifted[i] = v + shift
	}

	lambda := goldenSection(lambdaMin, lambdaMax, func(l float64) float64 {
		return boxCoxLogLikelihood(shifted, l)
	})

	bc := BoxCox{Lambda: lambda, Shift: shift}
	for _, v := range values {
		if y := bc.Apply(v); math.IsNaN(y) || math.IsInf(y, 0) {
			return BoxCox{}, fmt.Errorf("boxcox: non-finite transform of %v at lambda %.4f", v, lambda)
		}
	}
	return bc, nil
}

// Apply transforms a single value. Inputs at or below -Shift have no valid
// transform and yield NaN; callers validate positivity beforehand.
func (b BoxCox) Apply(x float64) float64 {
	x += b.Shift
	if x <= 0 {
		return math.NaN()
	}
	if math.Abs(b.Lambda) < 1e-12 {
		return math.Log(x)
	}
	return (math.Pow(x, b.Lambda) - 1) / b.Lambda
}

// Invert maps a transformed value back to the original scale.
func (b BoxCox) Invert(y float64) float64 {
	var x float64
	if math.Abs(b.Lambda) < 1e-12 {
		x = math.Exp(y)
	} else {
		base := b.Lambda*y + 1
		if base <= 0 {
			return math.NaN()
		}
		x = math.Pow(base, 1/b.Lambda)
	}
	return x - b.Shift
}

// boxCoxLogLikelihood is the profile log-likelihood of lambda for strictly
// positive data.
func boxCoxLogLikelihood(x []float64, lambda float64) float64 {
	n := float64(len(x))
	y := make([]float64, len(x))
	logSum := 0.0
	for i, v := range x {
		if math.Abs(lambda) < 1e-12 {
			y[i] = math.Log(v)
		} else {
			y[i] = (math.Pow(v, lambda) - 1) / lambda
		}
		logSum += math.Log(v)
	}

	variance := stat.PopVariance(y, nil)
	if variance <= 0 {
		return math.Inf(-1)
	}
	return -n/2*math.Log(variance) + (lambda-1)*logSum
}

// goldenSection maximises f over [a, b].
func goldenSection(a, b float64, f func(float64) float64) float64 {
	const (
		phi = 0.6180339887498949
		tol = 1e-6
	)

	x1 := b - phi*(b-a)
	x2 := a + phi*(b-a)
	f1, f2 := f(x1), f(x2)

	for b-a > tol {
		if f1 > f2 {
			b, x2, f2 = x2, x1, f1
			x1 = b - phi*(b-a)
			f1 = f(x1)
		} else {
			a, x1, f1 = x1, x2, f2
			x2 = a + phi*(b-a)
			f2 = f(x2)
		}
	}
	return (a + b) / 2
}
