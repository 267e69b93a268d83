package ml

import (
	"errors"
	"math/rand"

	"house-price-pipeline/utils"
)

// ErrNoValidationData is returned when the train/validation split leaves
// nothing to evaluate on.
var ErrNoValidationData = errors.New("trainer: validation split is empty")

// Model names recorded in the trained artifact.
const (
	ModelForest  = "random_forest"
	ModelNetwork = "neural_network"
)

// TrainerConfig holds everything the trainer needs to fit and compare the
// candidate models.
type TrainerConfig struct {
	Seed       int64
	SplitRatio float64
	Forest     ForestConfig
	Network    NetworkConfig
}

// DefaultTrainerConfig returns the standard training setup: seeded 80/20
// split, 100 trees, and the default network.
func DefaultTrainerConfig(seed int64) TrainerConfig {
	return TrainerConfig{
		Seed:       seed,
		SplitRatio: 0.8,
		Forest: ForestConfig{
			NumTrees:        100,
			MaxDepth:        10,
			MinSamplesSplit: 2,
			Seed:            seed,
		},
		Network: DefaultNetworkConfig(seed),
	}
}

// Result holds both fitted candidates, their validation metrics, and the
// selected model.
type Result struct {
	Forest         *Forest
	Network        *Network
	Chosen         string
	ForestMetrics  Metrics
	NetworkMetrics Metrics
}

// Trainer fits the candidate regressors and picks the better one by
// validation MSE.
type Trainer struct {
	cfg    TrainerConfig
	logger *utils.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(cfg TrainerConfig, logger *utils.Logger) *Trainer {
	return &Trainer{cfg: cfg, logger: logger}
}

// Train splits the data, fits the random forest and the neural network, and
// selects the candidate with lower validation MSE. Training aborts without
// a result when the validation split is empty or a candidate diverges.
func (t *Trainer) Train(X [][]float64, y []float64) (*Result, error) {
	trainX, trainY, valX, valY := split(X, y, t.cfg.SplitRatio, t.cfg.Seed)
	if len(valY) == 0 || len(trainY) == 0 {
		return nil, ErrNoValidationData
	}

	t.logger.Info("[trainer] Split: %d train / %d validation rows", len(trainY), len(valY))

	forest := NewForest(t.cfg.Forest)
	forest.Fit(trainX, trainY)
	forestMetrics := Evaluate(valY, forest.PredictAll(valX))
	if !forestMetrics.Finite() {
		return nil, ErrTrainingDiverged
	}
	t.logger.Info("[trainer] Random forest — MSE: %.4f | RMSE: %.4f | R²: %.4f",
		forestMetrics.MSE, forestMetrics.RMSE, forestMetrics.R2)

	network := NewNetwork(len(X[0]), t.cfg.Network)
	if err := network.Fit(trainX, trainY, t.cfg.Network.LearnRate, t.cfg.Network.Epochs); err != nil {
		return nil, err
	}
	networkMetrics := Evaluate(valY, network.PredictAll(valX))
	if !networkMetrics.Finite() {
		return nil, ErrTrainingDiverged
	}
	t.logger.Info("[trainer] Neural network — MSE: %.4f | RMSE: %.4f | R²: %.4f",
		networkMetrics.MSE, networkMetrics.RMSE, networkMetrics.R2)

	result := &Result{
		Forest:         forest,
		Network:        network,
		ForestMetrics:  forestMetrics,
		NetworkMetrics: networkMetrics,
	}
	if forestMetrics.MSE <= networkMetrics.MSE {
		result.Chosen = ModelForest
	} else {
		result.Chosen = ModelNetwork
	}
	t.logger.Info("[trainer] Selected model: %s", result.Chosen)

	return result, nil
}

// split shuffles the rows with a seeded RNG and partitions them by ratio.
func split(X [][]float64, y []float64, ratio float64, seed int64) ([][]float64, []float64, [][]float64, []float64) {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTrain := int(ratio * float64(n))
	if nTrain >= n {
		nTrain = n - 1
	}
	if nTrain < 0 {
		nTrain = 0
	}

	trainX, trainY := subset(X, y, idx[:nTrain])
	valX, valY := subset(X, y, idx[nTrain:])
	return trainX, trainY, valX, valY
}
