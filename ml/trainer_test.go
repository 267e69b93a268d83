package ml

import (
	"errors"
	"testing"

	"house-price-pipeline/utils"
)

// trainerData is a 40-row dataset with a deterministic target so both
// candidates can fit it and the validation split is non-trivial.
func trainerData() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		a := float64(i%8) / 8
		b := float64(i%5) / 5
		X = append(X, []float64{a, b})
		y = append(y, 3*a+b)
	}
	return X, y
}

func testTrainerConfig() TrainerConfig {
	cfg := DefaultTrainerConfig(42)
	cfg.Forest.NumTrees = 30
	cfg.Network.Epochs = 100
	return cfg
}

func TestTrainerSelectsLowerMSE(t *testing.T) {
	X, y := trainerData()
	trainer := NewTrainer(testTrainerConfig(), utils.NewLogger())

	result, err := trainer.Train(X, y)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if result.Forest == nil || result.Network == nil {
		t.Fatal("result is missing a fitted candidate")
	}
	if !result.ForestMetrics.Finite() || !result.NetworkMetrics.Finite() {
		t.Fatalf("non-finite validation metrics: %+v %+v", result.ForestMetrics, result.NetworkMetrics)
	}

	want := ModelForest
	if result.NetworkMetrics.MSE < result.ForestMetrics.MSE {
		want = ModelNetwork
	}
	if result.Chosen != want {
		t.Errorf("Chosen = %s, want %s (forest MSE %.4f, network MSE %.4f)",
			result.Chosen, want, result.ForestMetrics.MSE, result.NetworkMetrics.MSE)
	}
}

func TestTrainerReproducible(t *testing.T) {
	X, y := trainerData()

	a, err := NewTrainer(testTrainerConfig(), utils.NewLogger()).Train(X, y)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	b, err := NewTrainer(testTrainerConfig(), utils.NewLogger()).Train(X, y)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if a.Chosen != b.Chosen {
		t.Errorf("same seed chose different models: %s vs %s", a.Chosen, b.Chosen)
	}
	if a.ForestMetrics != b.ForestMetrics {
		t.Errorf("forest metrics differ across runs: %+v vs %+v", a.ForestMetrics, b.ForestMetrics)
	}
	if a.NetworkMetrics != b.NetworkMetrics {
		t.Errorf("network metrics differ across runs: %+v vs %+v", a.NetworkMetrics, b.NetworkMetrics)
	}
}

func TestTrainerRejectsTinyDataset(t *testing.T) {
	trainer := NewTrainer(testTrainerConfig(), utils.NewLogger())

	_, err := trainer.Train([][]float64{{1, 2}}, []float64{10})
	if !errors.Is(err, ErrNoValidationData) {
		t.Errorf("Train on one row: err = %v, want ErrNoValidationData", err)
	}
}

func TestSplitPartitionsAllRows(t *testing.T) {
	X, y := trainerData()
	trainX, trainY, valX, valY := split(X, y, 0.8, 42)

	if len(trainY)+len(valY) != len(y) {
		t.Fatalf("split lost rows: %d + %d != %d", len(trainY), len(valY), len(y))
	}
	if len(trainX) != len(trainY) || len(valX) != len(valY) {
		t.Fatal("feature and target splits have mismatched lengths")
	}
	if len(valY) == 0 {
		t.Error("validation split is empty at ratio 0.8")
	}
}
