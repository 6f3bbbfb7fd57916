package run

import (
	"fmt"

	"surveystat/domain/core"
)

// RunFingerprint pins everything that determines a run's numbers. Two runs
// with equal fingerprints produce identical matrices and result tables.
type RunFingerprint struct {
	WideHash    core.Hash `yaml:"wide_hash"`
	ProfileHash core.Hash `yaml:"profile_hash"`
	Mode        string    `yaml:"sample_size_mode"`
	Precision   int       `yaml:"precision"`
	CodeVersion string    `yaml:"code_version"`
	Fingerprint core.Hash `yaml:"fingerprint"` // hash of all above
}

// NewRunFingerprint creates a fingerprint from the determinism parameters
func NewRunFingerprint(wideHash, profileHash core.Hash, mode string, precision int, codeVersion string) RunFingerprint {
	return RunFingerprint{
		WideHash:    wideHash,
		ProfileHash: profileHash,
		Mode:        mode,
		Precision:   precision,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(wideHash, profileHash, mode, precision, codeVersion),
	}
}

func computeRunFingerprint(wideHash, profileHash core.Hash, mode string, precision int, codeVersion string) core.Hash {
	return core.NewHasher().
		Add(wideHash.String()).
		Add(profileHash.String()).
		Add(mode).
		Add(fmt.Sprint(precision)).
		Add(codeVersion).
		Sum()
}

// Counts records the size of each pipeline stage's output
type Counts struct {
	LongRecords      int `yaml:"long_records"`
	Segments         int `yaml:"segments"`
	Indicators       int `yaml:"indicators"`
	Pairs            int `yaml:"pairs"`
	KeyRelationships int `yaml:"key_relationships"`
}

// Inputs names the files a run read
type Inputs struct {
	DataFile      string `yaml:"data_file"`
	IndicatorFile string `yaml:"indicator_file,omitempty"`
	ProfileFile   string `yaml:"profile_file,omitempty"`
}

// Artifact is one file a run wrote
type Artifact struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// Artifact kinds
const (
	ArtifactWorkbook = "workbook"
	ArtifactCSV      = "csv"
	ArtifactFigure   = "figure"
	ArtifactReport   = "report"
)
