package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"house-price-pipeline/features"
	"house-price-pipeline/ml"
	"house-price-pipeline/models"
	"house-price-pipeline/utils"
)

func trainingListings() []*models.Listing {
	types := []string{"terraced", "flats", "detached", "semi_detached"}
	out := make([]*models.Listing, 20)
	for i := range out {
		beds := 2 + i%4
		area := 700 + float64(i)*60
		out[i] = &models.Listing{
			Location:     fmt.Sprintf("LS%d", i%4+1),
			PropertyType: types[i%len(types)],
			Bedrooms:     beds,
			Bathrooms:    1 + i%2,
			Receptions:   1 + i%2,
			FloorArea:    area,
			Price:        80000 + 40000*float64(beds) + 120*area,
		}
	}
	return out
}

func trainArtifact(t *testing.T) (*Artifact, []*models.Listing) {
	t.Helper()

	listings := trainingListings()
	params, err := features.Fit(listings)
	if err != nil {
		t.Fatalf("features.Fit: %v", err)
	}
	X, y, err := features.TransformDataset(listings, params)
	if err != nil {
		t.Fatalf("TransformDataset: %v", err)
	}

	cfg := ml.DefaultTrainerConfig(42)
	cfg.Forest.NumTrees = 30
	cfg.Network.Epochs = 100
	result, err := ml.NewTrainer(cfg, utils.NewLogger()).Train(X, y)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	return New(result, params), listings
}

func TestPredictTrainingListing(t *testing.T) {
	art, listings := trainArtifact(t)

	l := listings[5]
	est, err := art.Predict(features.RecordFromListing(l))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if est.Price <= 0 {
		t.Fatalf("predicted price %.2f, want > 0", est.Price)
	}
	// A model trained on 20 deterministic rows should land close to the
	// asking price of one of its own training rows.
	if est.Price < l.Price*0.7 || est.Price > l.Price*1.3 {
		t.Errorf("predicted %.0f for a training listing priced %.0f, want within 30%%", est.Price, l.Price)
	}
	if est.LowConfidence {
		t.Error("training listing flagged low confidence")
	}
}

func TestTrainOnMinimumDataset(t *testing.T) {
	// The smallest dataset the cleaner lets through must still train both
	// candidates without divergence and yield a usable artifact.
	listings := trainingListings()[:10]

	params, err := features.Fit(listings)
	if err != nil {
		t.Fatalf("features.Fit: %v", err)
	}
	X, y, err := features.TransformDataset(listings, params)
	if err != nil {
		t.Fatalf("TransformDataset: %v", err)
	}

	cfg := ml.DefaultTrainerConfig(42)
	cfg.Forest.NumTrees = 30
	cfg.Network.Epochs = 100
	result, err := ml.NewTrainer(cfg, utils.NewLogger()).Train(X, y)
	if err != nil {
		t.Fatalf("Train on 10 listings: %v", err)
	}

	est, err := New(result, params).Predict(features.RecordFromListing(listings[0]))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if est.Price <= 0 {
		t.Errorf("predicted price %.2f, want > 0", est.Price)
	}
}

func TestPredictUnseenCategoryIsLowConfidence(t *testing.T) {
	art, _ := trainArtifact(t)

	rec := features.Record{
		Location:     "ZZ99",
		PropertyType: "terraced",
		Bedrooms:     3,
		Bathrooms:    1,
		Receptions:   1,
		FloorArea:    900,
	}
	est, err := art.Predict(rec)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !est.LowConfidence {
		t.Error("unseen location not flagged low confidence")
	}
	if est.Price <= 0 {
		t.Errorf("predicted price %.2f, want > 0", est.Price)
	}
}

func TestPredictDeterministic(t *testing.T) {
	art, listings := trainArtifact(t)

	rec := features.RecordFromListing(listings[0])
	a, err := art.Predict(rec)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	b, err := art.Predict(rec)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if a.Price != b.Price {
		t.Errorf("prediction not deterministic: %.4f vs %.4f", a.Price, b.Price)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	art, listings := trainArtifact(t)
	path := filepath.Join(t.TempDir(), "model.gob")

	if err := Save(path, art); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Chosen != art.Chosen {
		t.Errorf("Chosen = %s after reload, want %s", loaded.Chosen, art.Chosen)
	}
	if loaded.ForestMetrics != art.ForestMetrics {
		t.Errorf("forest metrics changed across reload: %+v vs %+v", loaded.ForestMetrics, art.ForestMetrics)
	}

	rec := features.RecordFromListing(listings[3])
	want, err := art.Predict(rec)
	if err != nil {
		t.Fatalf("Predict before save: %v", err)
	}
	got, err := loaded.Predict(rec)
	if err != nil {
		t.Fatalf("Predict after load: %v", err)
	}
	if got.Price != want.Price {
		t.Errorf("reloaded artifact predicts %.4f, original %.4f", got.Price, want.Price)
	}
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	art, _ := trainArtifact(t)
	art.Version = FormatVersion + 1

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := Save(path, art); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrArtifactVersion) {
		t.Errorf("Load err = %v, want ErrArtifactVersion", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.gob")); err == nil {
		t.Error("expected error loading a missing artifact")
	}
}
