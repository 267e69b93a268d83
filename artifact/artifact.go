// Package artifact bundles a trained model with the transform parameters it
// was fitted against into one versioned, atomically-written file. The
// bundle is immutable after training: the predictor loads it once and
// shares it read-only across requests.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"house-price-pipeline/features"
	"house-price-pipeline/ml"
)

// FormatVersion changes whenever the bundle layout changes incompatibly.
// Load refuses artifacts written under a different version rather than
// silently mispredicting.
const FormatVersion = 2

// ErrArtifactVersion is returned when a loaded artifact was written under
// an incompatible format version.
var ErrArtifactVersion = errors.New("artifact: incompatible format version")

// Artifact is the deployable unit: the chosen model, both fitted
// candidates, their validation metrics, and the transform parameters.
type Artifact struct {
	Version        int
	CreatedAt      time.Time
	Chosen         string
	Forest         *ml.Forest
	Network        *ml.Network
	Params         *features.Params
	ForestMetrics  ml.Metrics
	NetworkMetrics ml.Metrics
}

// Estimate is a single price prediction. LowConfidence is set when the
// input needed the fallback category for location or property type.
type Estimate struct {
	Price         float64
	LowConfidence bool
}

// New builds an artifact from a training result.
func New(result *ml.Result, params *features.Params) *Artifact {
	return &Artifact{
		Version:        FormatVersion,
		CreatedAt:      time.Now(),
		Chosen:         result.Chosen,
		Forest:         result.Forest,
		Network:        result.Network,
		Params:         params,
		ForestMetrics:  result.ForestMetrics,
		NetworkMetrics: result.NetworkMetrics,
	}
}

// Predict applies the fitted transform to a raw record, runs the chosen
// model, and maps the unit-scale output back through the target
// standardisation and the Box-Cox inversion to a price in pounds.
func (a *Artifact) Predict(rec features.Record) (*Estimate, error) {
	vec, err := features.Apply(rec, a.Params)
	if err != nil {
		return nil, err
	}

	var out float64
	switch a.Chosen {
	case ml.ModelForest:
		out = a.Forest.Predict(vec.Values)
	case ml.ModelNetwork:
		out = a.Network.Predict(vec.Values)
	default:
		return nil, fmt.Errorf("artifact: unknown model %q", a.Chosen)
	}

	price := a.Params.Price.Invert(out*a.Params.TargetStd + a.Params.TargetMean)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("artifact: model produced a non-finite price estimate")
	}

	return &Estimate{Price: price, LowConfidence: vec.UsedFallback}, nil
}

// Save gob-encodes the artifact to a temp file in the target directory and
// renames it into place, so readers never observe a partial write.
func Save(path string, a *Artifact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("artifact: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact: rename into place: %w", err)
	}
	return nil
}

// Load reads an artifact and verifies its format version.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: open %q: %w", path, err)
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("artifact: decode %q: %w", path, err)
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("%w: file has version %d, expected %d",
			ErrArtifactVersion, a.Version, FormatVersion)
	}
	return &a, nil
}
