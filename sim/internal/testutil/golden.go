// Package testutil provides shared test infrastructure for the line
// simulator: golden fixture resolution.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir returns the repo-root testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func GoldenDir(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// NewGoldie returns a goldie instance reading fixtures from GoldenDir.
// Run tests with -update to regenerate fixtures.
func NewGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithFixtureDir(GoldenDir(t)))
}
