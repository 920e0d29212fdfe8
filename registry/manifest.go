package registry

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

// CandidateResult is one row of the training report.
type CandidateResult struct {
	Name     string  `json:"name"`
	Artifact string  `json:"artifact"`
	Checksum string  `json:"sha256,omitempty"`
	MSE      float64 `json:"mse"`
	RMSE     float64 `json:"rmse"`
	MAE      float64 `json:"mae"`
	R2       float64 `json:"r2"`
}

// Manifest describes one training run.
type Manifest struct {
	RunID          string            `json:"run_id"`
	CreatedAt      time.Time         `json:"created_at"`
	FeatureNames   []string          `json:"feature_names"`
	TrainingRows   int               `json:"training_rows"`
	ValidationRows int               `json:"validation_rows"`
	DroppedRows    int               `json:"dropped_rows"`
	Candidates     []CandidateResult `json:"candidates"`
	Best           string            `json:"best"`
}

// NewRunID returns a random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// BestResult returns the candidate row named by Best.
func (m *Manifest) BestResult() (CandidateResult, bool) {
	for _, c := range m.Candidates {
		if c.Name == m.Best {
			return c, true
		}
	}
	return CandidateResult{}, false
}

// Encode returns m as indented JSON. Non-finite metrics cannot be encoded.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode manifest")
	}
	return data, nil
}

// SaveManifest writes m as indented JSON.
func (s *Store) SaveManifest(m *Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.File(ManifestFile), data, 0o644); err != nil {
		return errors.Wrap(err, "write manifest")
	}
	return nil
}

// LoadManifest reads the run manifest.
func (s *Store) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.File(ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrArtifactNotFound, ManifestFile)
		}
		return nil, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decode manifest")
	}
	return &m, nil
}
