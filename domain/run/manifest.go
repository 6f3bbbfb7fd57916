package run

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"surveystat/domain/core"
	"surveystat/domain/stats"
)

// ManifestFile is the manifest's file name in the output directory.
const ManifestFile = "manifest.yaml"

// Manifest is the record of one analysis run: what was read, how it was
// analysed and what was written.
type Manifest struct {
	RunID            core.RunID     `yaml:"run_id"`
	Profile          string         `yaml:"profile"`
	StartedAt        core.Timestamp `yaml:"started_at"`
	FinishedAt       core.Timestamp `yaml:"finished_at"`
	Inputs           Inputs         `yaml:"inputs"`
	Counts           Counts         `yaml:"counts"`
	Fingerprint      RunFingerprint `yaml:"fingerprint"`
	Workers          int            `yaml:"workers"`
	DegreesOfFreedom int            `yaml:"degrees_of_freedom"`
	CriticalT        float64        `yaml:"critical_t"`
	Summary          stats.Summary  `yaml:"summary"`
	Artifacts        []Artifact     `yaml:"artifacts"`
}

// NewManifest starts a manifest for a fresh run
func NewManifest(profile string, inputs Inputs) *Manifest {
	return &Manifest{
		RunID:     core.NewRunID(),
		Profile:   profile,
		StartedAt: core.Now(),
		Inputs:    inputs,
	}
}

// RecordAnalysis copies the engine's headline numbers into the manifest
func (m *Manifest) RecordAnalysis(a *stats.Analysis) {
	m.Counts.Pairs = len(a.Pairs)
	m.Counts.KeyRelationships = len(a.Key)
	m.DegreesOfFreedom = a.DegreesOfFreedom
	m.CriticalT = a.CriticalT
	m.Summary = a.Summary
}

// AddArtifacts appends written files of one kind
func (m *Manifest) AddArtifacts(kind string, paths ...string) {
	for _, p := range paths {
		m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: p})
	}
}

// Finish stamps the completion time
func (m *Manifest) Finish() {
	m.FinishedAt = core.Now()
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Inputs.DataFile == "" {
		return core.NewValidationError("run_manifest", "data_file cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	if m.StartedAt.IsZero() {
		return core.NewValidationError("run_manifest", "started_at cannot be zero")
	}
	return nil
}

// Write saves the manifest as YAML to dir/manifest.yaml and returns the path
func (m *Manifest) Write(dir string) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by Write
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
