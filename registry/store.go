// Package registry is the file-based artifact store shared by preprocessing,
// training, batch prediction and the dashboard. Artifacts are gob files
// keyed by name inside one directory; the run manifest is JSON.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// Well-known artifact names.
const (
	BestModel     = "best_model"
	ScalerName    = "scaler"
	ManifestFile  = "manifest.json"
	ImportanceCSV = "feature_importances.csv"
	artifactExt   = ".gob"
)

// Store reads and writes artifacts below Dir.
type Store struct {
	Dir    string
	logger log.Logger
}

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create artifact directory %s", dir)
	}
	return &Store{Dir: dir, logger: log.Component("registry")}, nil
}

// OpenExisting returns a store for a directory that must already exist.
// Readers (batch prediction, dashboard) use it so a missing model
// directory is reported as missing artifacts rather than silently created.
func OpenExisting(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrArtifactNotFound, "artifact directory %s", dir)
		}
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s is not a directory", dir)
	}
	return &Store{Dir: dir, logger: log.Component("registry")}, nil
}

// ModelName returns the artifact name of a candidate: its lower-cased name.
func ModelName(candidate string) string {
	return strings.ToLower(candidate)
}

// EncoderName returns the artifact name of a column's label encoder,
// e.g. "Company Type" → "company_type_encoder".
func EncoderName(column string) string {
	return Slug(column) + "_encoder"
}

// Slug lower-cases s and replaces runs of non-alphanumerics with "_".
func Slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Path returns the file path of artifact name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+artifactExt)
}

// File returns the path of a non-gob file kept alongside the artifacts.
func (s *Store) File(name string) string {
	return filepath.Join(s.Dir, name)
}

// Exists reports whether artifact name has been written.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Save gob-encodes v under name, replacing any previous artifact atomically.
func (s *Store) Save(name string, v interface{}) error {
	path := s.Path(name)
	if err := model.SaveModel(v, path); err != nil {
		return errors.Wrapf(err, "save artifact %s", name)
	}
	s.logger.Debug("artifact saved", log.ArtifactKey, path)
	return nil
}

// Load decodes artifact name into v. A missing artifact wraps
// errors.ErrArtifactNotFound.
func (s *Store) Load(name string, v interface{}) error {
	if err := model.LoadModel(v, s.Path(name)); err != nil {
		return errors.Wrapf(err, "load artifact %s", name)
	}
	return nil
}

// SaveModel stores a fitted model envelope under name.
func (s *Store) SaveModel(name string, env *model.Envelope) error {
	return s.Save(name, env)
}

// LoadModel loads a model envelope stored under name.
func (s *Store) LoadModel(name string) (*model.Envelope, error) {
	var env model.Envelope
	if err := s.Load(name, &env); err != nil {
		return nil, err
	}
	if env.Model == nil {
		return nil, errors.NewModelError("registry.LoadModel", "artifact holds no model", nil)
	}
	return &env, nil
}

// Checksum returns the hex sha256 of artifact name's file.
func (s *Store) Checksum(name string) (string, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return "", errors.Wrapf(err, "open artifact %s", name)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hash artifact %s", name)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
