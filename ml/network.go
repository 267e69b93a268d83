package ml

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrTrainingDiverged is returned when the network's loss stops being a
// real number. A diverged run must never be deployed.
var ErrTrainingDiverged = errors.New("network: training diverged, loss is non-finite")

// Layer is one dense layer. Weights are stored row-major (Out × In) in a
// flat slice so the layer gob-encodes cleanly; the matrix view used during
// the forward and backward passes aliases the same backing slice.
type Layer struct {
	In      int
	Out     int
	Weights []float64
	Biases  []float64
}

func newLayer(in, out int, rnd *rand.Rand) Layer {
	l := Layer{
		In:      in,
		Out:     out,
		Weights: make([]float64, in*out),
		Biases:  make([]float64, out),
	}
	// He initialisation for ReLU layers.
	scale := math.Sqrt(2 / float64(in))
	for i := range l.Weights {
		l.Weights[i] = rnd.NormFloat64() * scale
	}
	return l
}

func (l *Layer) matrix() *mat.Dense {
	return mat.NewDense(l.Out, l.In, l.Weights)
}

// forward computes W·x + b.
func (l *Layer) forward(x *mat.VecDense) *mat.VecDense {
	z := mat.NewVecDense(l.Out, nil)
	z.MulVec(l.matrix(), x)
	z.AddVec(z, mat.NewVecDense(l.Out, l.Biases))
	return z
}

// Network is a dense feed-forward regressor: two ReLU hidden layers with
// inverted dropout after the first, and a linear output unit. Trained by
// per-sample stochastic gradient descent on squared error.
type Network struct {
	Hidden1 Layer
	Hidden2 Layer
	Output  Layer
	Dropout float64
	Seed    int64
}

// NetworkConfig holds the network hyperparameters.
type NetworkConfig struct {
	Hidden1   int
	Hidden2   int
	Dropout   float64
	LearnRate float64
	Epochs    int
	Seed      int64
}

// DefaultNetworkConfig mirrors the serving defaults: 64/32 hidden units,
// 20% dropout, 200 epochs.
func DefaultNetworkConfig(seed int64) NetworkConfig {
	return NetworkConfig{
		Hidden1:   64,
		Hidden2:   32,
		Dropout:   0.2,
		LearnRate: 0.01,
		Epochs:    200,
		Seed:      seed,
	}
}

// NewNetwork creates a network with randomly initialised weights for the
// given input width.
func NewNetwork(inputs int, cfg NetworkConfig) *Network {
	rnd := rand.New(rand.NewSource(cfg.Seed))
	return &Network{
		Hidden1: newLayer(inputs, cfg.Hidden1, rnd),
		Hidden2: newLayer(cfg.Hidden1, cfg.Hidden2, rnd),
		Output:  newLayer(cfg.Hidden2, 1, rnd),
		Dropout: cfg.Dropout,
		Seed:    cfg.Seed,
	}
}

// Fit trains the network for the given epoch budget. It aborts with
// ErrTrainingDiverged as soon as an epoch's loss is NaN or infinite.
func (n *Network) Fit(X [][]float64, y []float64, learnRate float64, epochs int) error {
	rnd := rand.New(rand.NewSource(n.Seed + 1))
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < epochs; epoch++ {
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		for _, i := range order {
			loss := n.step(X[i], y[i], learnRate, rnd)
			epochLoss += loss
		}
		epochLoss /= float64(len(X))

		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			return ErrTrainingDiverged
		}
	}
	return nil
}

// Predict runs inference for one row. Dropout is disabled; training used
// inverted dropout so no rescaling is needed here.
func (n *Network) Predict(x []float64) float64 {
	v := mat.NewVecDense(len(x), x)

	z1 := n.Hidden1.forward(v)
	relu(z1)
	z2 := n.Hidden2.forward(z1)
	relu(z2)
	out := n.Output.forward(z2)
	return out.AtVec(0)
}

// PredictAll predicts every row of the matrix.
func (n *Network) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = n.Predict(x)
	}
	return out
}

// step runs one forward/backward pass for a single sample and updates the
// weights in place. Returns the squared-error loss before the update.
func (n *Network) step(x []float64, target, learnRate float64, rnd *rand.Rand) float64 {
	in := mat.NewVecDense(len(x), x)

	// Forward.
	z1 := n.Hidden1.forward(in)
	a1 := cloneVec(z1)
	relu(a1)
	mask := n.dropoutMask(a1, rnd)

	z2 := n.Hidden2.forward(a1)
	a2 := cloneVec(z2)
	relu(a2)

	out := n.Output.forward(a2).AtVec(0)
	diff := out - target
	loss := diff * diff

	// Backward. dLoss/dOut = 2(out - target).
	dOut := 2 * diff

	// Output layer gradients.
	dA2 := make([]float64, n.Hidden2.Out)
	for j := 0; j < n.Output.In; j++ {
		dA2[j] = dOut * n.Output.Weights[j]
		n.Output.Weights[j] -= learnRate * dOut * a2.AtVec(j)
	}
	n.Output.Biases[0] -= learnRate * dOut

	// Hidden layer 2.
	dA1 := make([]float64, n.Hidden1.Out)
	for o := 0; o < n.Hidden2.Out; o++ {
		if z2.AtVec(o) <= 0 {
			continue
		}
		g := dA2[o]
		row := o * n.Hidden2.In
		for j := 0; j < n.Hidden2.In; j++ {
			dA1[j] += g * n.Hidden2.Weights[row+j]
			n.Hidden2.Weights[row+j] -= learnRate * g * a1.AtVec(j)
		}
		n.Hidden2.Biases[o] -= learnRate * g
	}

	// Hidden layer 1, masked by the dropout pattern used on the forward pass.
	for o := 0; o < n.Hidden1.Out; o++ {
		if z1.AtVec(o) <= 0 || mask[o] == 0 {
			continue
		}
		g := dA1[o] * mask[o]
		row := o * n.Hidden1.In
		for j := 0; j < n.Hidden1.In; j++ {
			n.Hidden1.Weights[row+j] -= learnRate * g * in.AtVec(j)
		}
		n.Hidden1.Biases[o] -= learnRate * g
	}

	return loss
}

// dropoutMask zeroes activations with probability Dropout and scales the
// survivors by 1/(1-p) (inverted dropout). The returned mask carries the
// scale factor per unit for the backward pass.
func (n *Network) dropoutMask(a *mat.VecDense, rnd *rand.Rand) []float64 {
	mask := make([]float64, a.Len())
	if n.Dropout <= 0 {
		for i := range mask {
			mask[i] = 1
		}
		return mask
	}

	keep := 1 - n.Dropout
	for i := 0; i < a.Len(); i++ {
		if rnd.Float64() < n.Dropout {
			a.SetVec(i, 0)
			continue
		}
		mask[i] = 1 / keep
		a.SetVec(i, a.AtVec(i)/keep)
	}
	return mask
}

func relu(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < 0 {
			v.SetVec(i, 0)
		}
	}
}

func cloneVec(v *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	out.CopyVec(v)
	return out
}
