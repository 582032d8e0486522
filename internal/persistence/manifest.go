// Package persistence stores what a cleaning run produced next to its artifacts.
// A manifest is a small JSON sidecar (<name>.manifest.json) describing one
// cleaned artifact: the run that wrote it, its schema and row counts.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// DefaultCleanDir is the default directory for cleaned artifacts and manifests.
const DefaultCleanDir = "./data/clean"

// Common errors
var (
	// ErrInvalidDataset is returned when the dataset name is empty.
	ErrInvalidDataset = errors.New("dataset name is required")

	// ErrNilManifest is returned when manifest is nil.
	ErrNilManifest = errors.New("manifest is nil")
)

// Manifest describes one cleaned artifact.
type Manifest struct {
	// Dataset is the artifact base name (e.g., "train").
	Dataset string `json:"dataset"`

	// Pipeline is the composition that produced the artifact.
	Pipeline trip.Mode `json:"pipeline"`

	// RunID identifies the run that wrote the artifact.
	RunID string `json:"runId"`

	// Source is the raw input path.
	Source string `json:"source"`

	// Artifact is the parquet path.
	Artifact string `json:"artifact"`

	// WriteMode is the guard the artifact was written under.
	WriteMode string `json:"writeMode,omitempty"`

	// RowsRead is the row count of the raw input.
	RowsRead int `json:"rowsRead"`

	// RowsWritten is the row count of the artifact.
	RowsWritten int `json:"rowsWritten"`

	// Columns is the artifact schema in order.
	Columns []string `json:"columns"`

	// Stages holds per-stage row counts.
	Stages []trip.StageResult `json:"stages,omitempty"`

	// CreatedAt is when the artifact was written.
	CreatedAt time.Time `json:"createdAt"`
}

// ManifestStore provides thread-safe persistence of manifests.
type ManifestStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewManifestStore creates a store rooted at basePath.
// If basePath is empty, DefaultCleanDir is used.
func NewManifestStore(basePath string) *ManifestStore {
	if basePath == "" {
		basePath = DefaultCleanDir
	}
	return &ManifestStore{basePath: basePath}
}

// filePath returns the manifest path for a dataset.
func (s *ManifestStore) filePath(dataset string) string {
	// Sanitize to prevent directory traversal
	return filepath.Join(s.basePath, filepath.Base(dataset)+".manifest.json")
}

// Save persists the manifest for a dataset atomically.
func (s *ManifestStore) Save(dataset string, m *Manifest) error {
	if dataset == "" {
		return ErrInvalidDataset
	}
	if m == nil {
		return ErrNilManifest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.Dataset = dataset
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	path := s.filePath(dataset)
	if err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}

	logger.Debug("manifest saved",
		"dataset", dataset,
		"path", path,
		"rows_written", m.RowsWritten,
	)
	return nil
}

// Load retrieves the manifest for a dataset.
// Returns nil, nil if no manifest exists.
func (s *ManifestStore) Load(dataset string) (*Manifest, error) {
	if dataset == "" {
		return nil, ErrInvalidDataset
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.filePath(dataset)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no manifest found", "dataset", dataset, "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Warn("failed to unmarshal manifest",
			"dataset", dataset,
			"path", path,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}
	return &m, nil
}

// Delete removes the manifest for a dataset. Missing files are not an error.
func (s *ManifestStore) Delete(dataset string) error {
	if dataset == "" {
		return ErrInvalidDataset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath(dataset)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting manifest: %w", err)
	}
	return nil
}

// Exists reports whether path exists. It is the check half of the
// check-then-write guard and is not atomic with the write that follows.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}
