package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	rec := Defaults()
	assert.Equal(t, 1600, rec.MicrostepsPerRev)
	assert.Equal(t, 5.0, rec.ScrewPitchMm)
	assert.NoError(t, rec.Validate())
}

func TestValidate(t *testing.T) {
	rec := Defaults()
	rec.MicrostepsPerRev = 0
	assert.Error(t, rec.Validate())

	rec = Defaults()
	rec.ScrewPitchMm = -1
	assert.Error(t, rec.Validate())

	rec = Defaults()
	rec.AccelerationMmS2 = 0
	assert.Error(t, rec.Validate())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.yaml")
	store := NewFileStore(path)

	rec := Defaults()
	rec.Position2Mm = 75.5
	rec.InvertDir = true
	require.NoError(t, store.Save(rec))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.yaml"))
	rec, err := store.Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), rec)
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	rec, err := NewFileStore(path).Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), rec)
}

func TestLoadInvalidRecordReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("microsteps_per_rev: -4\n"), 0644))

	rec, err := NewFileStore(path).Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), rec)
}

func TestDump(t *testing.T) {
	lines := Defaults().Dump()
	assert.Contains(t, lines, "MICROSTEPS:1600")
	assert.Contains(t, lines, "PITCH:5")
	assert.Contains(t, lines, "INVERTENABLE:0")
	assert.Len(t, lines, 9)
}
