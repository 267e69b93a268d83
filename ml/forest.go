package ml

import (
	"math"
	"math/rand"
	"sort"
)

// Tree is one regression tree node. Leaf nodes have Feature == -1 and carry
// the mean target of their samples in Value. All fields are exported for
// gob encoding of trained artifacts.
type Tree struct {
	Feature   int
	Threshold float64
	Left      *Tree
	Right     *Tree
	Value     float64
}

// Forest is a bootstrap-aggregated ensemble of regression trees. The seed
// fixes both the bootstrap sampling and the per-split feature subsets, so
// training is reproducible.
type Forest struct {
	Trees            []*Tree
	NumTrees         int
	MaxDepth         int
	MinSamplesSplit  int
	FeaturesPerSplit int
	Seed             int64
}

// ForestConfig holds the forest hyperparameters.
type ForestConfig struct {
	NumTrees         int
	MaxDepth         int
	MinSamplesSplit  int
	FeaturesPerSplit int
	Seed             int64
}

// NewForest creates an untrained forest. A FeaturesPerSplit of 0 considers
// every feature at each split; tree diversity then comes from the bootstrap
// sampling alone, the usual policy for regression forests.
func NewForest(cfg ForestConfig) *Forest {
	return &Forest{
		NumTrees:         cfg.NumTrees,
		MaxDepth:         cfg.MaxDepth,
		MinSamplesSplit:  cfg.MinSamplesSplit,
		FeaturesPerSplit: cfg.FeaturesPerSplit,
		Seed:             cfg.Seed,
	}
}

// Fit trains the ensemble on the feature matrix and targets. Each tree sees
// a bootstrap sample of the rows.
func (f *Forest) Fit(X [][]float64, y []float64) {
	if f.FeaturesPerSplit <= 0 && len(X) > 0 {
		f.FeaturesPerSplit = len(X[0])
	}

	rnd := rand.New(rand.NewSource(f.Seed))
	f.Trees = make([]*Tree, f.NumTrees)
	for i := 0; i < f.NumTrees; i++ {
		f.Trees[i] = f.fitTree(X, y, rnd)
	}
}

// Predict averages the individual tree predictions for one row.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

// PredictAll predicts every row of the matrix.
func (f *Forest) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = f.Predict(x)
	}
	return out
}

func (f *Forest) fitTree(X [][]float64, y []float64, rnd *rand.Rand) *Tree {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rnd.Intn(n)
	}
	Xb, yb := subset(X, y, idx)
	return buildTree(Xb, yb, f.MaxDepth, f.MinSamplesSplit, f.FeaturesPerSplit, rnd)
}

// buildTree grows a tree by greedily choosing the split that minimises the
// weighted child variance over a random feature subset.
func buildTree(X [][]float64, y []float64, depth, minSamples, nFeatures int, rnd *rand.Rand) *Tree {
	if len(y) <= minSamples || depth == 0 {
		return &Tree{Feature: -1, Value: meanOf(y)}
	}

	bestFeat, bestThresh, leftIdx, rightIdx := bestSplit(X, y, nFeatures, rnd)
	if bestFeat == -1 {
		return &Tree{Feature: -1, Value: meanOf(y)}
	}

	Xl, yl := subset(X, y, leftIdx)
	Xr, yr := subset(X, y, rightIdx)
	return &Tree{
		Feature:   bestFeat,
		Threshold: bestThresh,
		Left:      buildTree(Xl, yl, depth-1, minSamples, nFeatures, rnd),
		Right:     buildTree(Xr, yr, depth-1, minSamples, nFeatures, rnd),
	}
}

func bestSplit(X [][]float64, y []float64, nFeatures int, rnd *rand.Rand) (int, float64, []int, []int) {
	nSamples := len(y)
	nCols := len(X[0])

	bestFeat := -1
	bestThresh := 0.0
	bestScore := math.Inf(1)
	var bestLeft, bestRight []int

	for _, f := range featureSubset(nCols, nFeatures, rnd) {
		thresholds := candidateThresholds(X, f)
		for _, thr := range thresholds {
			var left, right []int
			for i := 0; i < nSamples; i++ {
				if X[i][f] <= thr {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			score := float64(len(left))*varianceAt(y, left) + float64(len(right))*varianceAt(y, right)
			if score < bestScore {
				bestScore = score
				bestFeat = f
				bestThresh = thr
				bestLeft = left
				bestRight = right
			}
		}
	}
	return bestFeat, bestThresh, bestLeft, bestRight
}

// candidateThresholds returns midpoints between consecutive distinct values
// of the feature column.
func candidateThresholds(X [][]float64, feature int) []float64 {
	set := make(map[float64]struct{}, len(X))
	for _, row := range X {
		set[row[feature]] = struct{}{}
	}
	if len(set) < 2 {
		return nil
	}

	vals := make([]float64, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Float64s(vals)

	thresholds := make([]float64, len(vals)-1)
	for i := 0; i < len(vals)-1; i++ {
		thresholds[i] = (vals[i] + vals[i+1]) / 2
	}
	return thresholds
}

func featureSubset(n, k int, rnd *rand.Rand) []int {
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return rnd.Perm(n)[:k]
}

func (t *Tree) predict(x []float64) float64 {
	if t.Feature == -1 || t.Left == nil || t.Right == nil {
		return t.Value
	}
	if x[t.Feature] <= t.Threshold {
		return t.Left.predict(x)
	}
	return t.Right.predict(x)
}

func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	Xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		Xs[i] = X[j]
		ys[i] = y[j]
	}
	return Xs, ys
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func varianceAt(y []float64, idx []int) float64 {
	if len(idx) <= 1 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))

	var ss float64
	for _, i := range idx {
		d := y[i] - mean
		ss += d * d
	}
	return ss / float64(len(idx))
}
