package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := Default()
	require.Equal(t, SplitterModeFixed, cfg.Splitter.Mode)
	require.True(t, cfg.Incremental.UseSafePropagation)
	require.Equal(t, 0.25, cfg.Incremental.SimilarityThreshold)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Builder.ReductionDimension = 9
	cfg.Retriever.MaxSameSource = 7

	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9, loaded.Builder.ReductionDimension)
	require.Equal(t, 7, loaded.Retriever.MaxSameSource)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("builder:\n  reduction_dimension: 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Builder.ReductionDimension)
	require.Equal(t, SplitterModeFixed, cfg.Splitter.Mode)
}
