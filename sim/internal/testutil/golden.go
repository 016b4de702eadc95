// Package testutil provides shared test infrastructure for the flowsheet engine.
// It consolidates golden dataset types and assertion helpers used across
// sim/ and sim/flowsheet/ test packages. It has no dependency on sim/ so that
// package sim's internal tests can use it.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one flowsheet with its expected outcome.
type GoldenTestCase struct {
	Name          string         `json:"name"`
	MaxIterations int            `json:"max_iterations"`
	Tolerance     float64        `json:"tolerance"`
	Nodes         []GoldenNode   `json:"nodes"`
	Edges         []GoldenEdge   `json:"edges"`
	Expected      GoldenExpected `json:"expected"`
}

// GoldenNode mirrors a flowsheet node.
type GoldenNode struct {
	ID     string             `json:"id"`
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params"`
}

// GoldenEdge mirrors a flowsheet edge.
type GoldenEdge struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourcePort string `json:"source_port"`
	TargetPort string `json:"target_port"`
}

// GoldenExpected holds the expected run outcome.
type GoldenExpected struct {
	Success        bool               `json:"success"`
	Converged      bool               `json:"converged"`
	ErrorSubstring string             `json:"error_substring"`
	GlobalKPIs     map[string]float64 `json:"global_kpis"`
	RelTol         float64            `json:"rel_tol"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Values within 1e-9 of zero on both sides compare equal.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if math.Abs(want) < 1e-9 && math.Abs(got) < 1e-9 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
