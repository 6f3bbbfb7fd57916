package main

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/internal/errors"
)

func TestNewSessionAppliesProfileEnvironment(t *testing.T) {
	t.Setenv("SURVEY_PROFILE", "")
	t.Setenv("SURVEY_TOP_N", "3")
	t.Setenv("SURVEY_PRECISION", "2")
	t.Setenv("SURVEY_COUNTRY", "Viet Nam")

	s, err := newSession(&options{out: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 3, s.profile.TopN)
	assert.Equal(t, 2, s.profile.Precision)
	assert.Equal(t, "Viet Nam", s.profile.Country)
	assert.Same(t, s.profile, s.request.Profile)
}

func TestNewSessionRejectsMissingProfile(t *testing.T) {
	_, err := newSession(&options{profile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestErrorMessage(t *testing.T) {
	wrapped := fmt.Errorf("analysis failed: %w", errors.ConfigInvalid("alpha must be in (0, 1)"))
	assert.Equal(t, "[CONFIG_INVALID] analysis failed: alpha must be in (0, 1)", errorMessage(wrapped))
	assert.Equal(t, "plain", errorMessage(fmt.Errorf("plain")))
}
