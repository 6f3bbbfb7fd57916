package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
	"surveystat/domain/stats"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	fp1 := NewRunFingerprint("wide", "profile", "segments", 0, "1.0.0")
	fp2 := NewRunFingerprint("wide", "profile", "segments", 0, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.WideHash != "wide" {
		t.Errorf("WideHash mismatch: %s", fp1.WideHash)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint("wide", "profile", "segments", 0, "1.0.0")

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"wide table", NewRunFingerprint("wide2", "profile", "segments", 0, "1.0.0")},
		{"profile", NewRunFingerprint("wide", "profile2", "segments", 0, "1.0.0")},
		{"mode", NewRunFingerprint("wide", "profile", "pairwise", 0, "1.0.0")},
		{"precision", NewRunFingerprint("wide", "profile", "segments", 2, "1.0.0")},
		{"code version", NewRunFingerprint("wide", "profile", "segments", 0, "1.0.1")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("changing %s did not change the fingerprint", tc.name)
			}
		})
	}
}

func TestManifestWriteAndRead(t *testing.T) {
	m := NewManifest("vietnam-2023-technology", Inputs{DataFile: "data/vietnam_data_clean.csv"})
	m.Fingerprint = NewRunFingerprint("wide", "profile", "segments", 0, "dev")
	m.Counts = Counts{LongRecords: 120, Segments: 23, Indicators: 10}
	m.RecordAnalysis(&stats.Analysis{
		DegreesOfFreedom: 21,
		CriticalT:        2.0796,
		Pairs:            make([]stats.PairResult, 45),
		Key:              make([]stats.PairResult, 17),
		Summary: stats.Summary{
			TotalPairs: 45,
			TierCounts: map[stats.SignificanceTier]int{stats.TierHighlySignificant: 3, stats.TierNotSignificant: 42},
		},
	})
	m.AddArtifacts(ArtifactWorkbook, "output/Table4_For_Paper.xlsx", "output/Analysis_Results.xlsx")
	m.Finish()

	dir := filepath.Join(t.TempDir(), "output")
	path, err := m.Write(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestFile), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run_id: "+m.RunID.String())
	assert.Contains(t, string(raw), "critical_t: 2.0796")

	loaded, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, loaded.RunID)
	assert.Equal(t, m.Fingerprint, loaded.Fingerprint)
	assert.Equal(t, m.Counts.Pairs, loaded.Counts.Pairs)
	assert.Equal(t, 17, loaded.Counts.KeyRelationships)
	assert.Equal(t, 3, loaded.Summary.TierCounts[stats.TierHighlySignificant])
	assert.Equal(t, m.StartedAt.Time().Unix(), loaded.StartedAt.Time().Unix())
	require.Len(t, loaded.Artifacts, 2)
	assert.Equal(t, ArtifactWorkbook, loaded.Artifacts[0].Kind)
}

func TestManifestValidate(t *testing.T) {
	m := NewManifest("p", Inputs{})
	assert.Error(t, m.Validate(), "missing data file")

	m.Inputs.DataFile = "in.csv"
	assert.Error(t, m.Validate(), "missing fingerprint")

	m.Fingerprint = NewRunFingerprint("w", "p", "segments", 0, "dev")
	assert.NoError(t, m.Validate())

	m.RunID = core.RunID("")
	assert.Error(t, m.Validate())
}
