package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/stosir/stosir/sim"
)

// ManifestFile is written next to the data files of every run.
const ManifestFile = "manifest.yaml"

// Manifest records how a Trial Set on disk was produced.
type Manifest struct {
	ID              string   `yaml:"id"`
	CreatedAt       string   `yaml:"created_at"` // RFC 3339
	Scenario        Scenario `yaml:"scenario"`
	Format          string   `yaml:"format"`
	Files           []string `yaml:"files"`
	TotalAttempts   int      `yaml:"total_attempts"`
	Rejected        int      `yaml:"rejected"`
	MaxSlotAttempts int      `yaml:"max_slot_attempts"`
	WallTimeSeconds float64  `yaml:"wall_time_seconds"`
}

// NewManifest builds a manifest for a finished run with a fresh run ID.
func NewManifest(sc Scenario, format string, files []string, stats sim.RunStats, wall time.Duration) Manifest {
	m := Manifest{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		Scenario:        sc,
		Format:          format,
		Rejected:        stats.Rejected,
		WallTimeSeconds: wall.Seconds(),
	}
	for _, f := range files {
		m.Files = append(m.Files, filepath.Base(f))
	}
	for _, a := range stats.Attempts {
		m.TotalAttempts += a
		m.MaxSlotAttempts = max(m.MaxSlotAttempts, a)
	}
	return m
}

// WriteManifest stores m as dir/manifest.yaml.
func WriteManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads dir/manifest.yaml and checks the run ID.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return Manifest{}, fmt.Errorf("manifest id %q: %w", m.ID, err)
	}
	return m, nil
}
