package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		line string
		pct  float64
		desc string
		ok   bool
	}{
		{"[PROGRESS] 10.0% - parsing conversations", 10.0, "parsing conversations", true},
		{"[PROGRESS] 100% - done", 100, "done", true},
		{"INFO loading price table", 0, "", false},
		{"[PROGRESS] n/a% - broken", 0, "", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		pct, desc, ok := parseProgressLine(tt.line)
		if ok != tt.ok || pct != tt.pct || desc != tt.desc {
			t.Errorf("parseProgressLine(%q) = (%v, %q, %v), want (%v, %q, %v)",
				tt.line, pct, desc, ok, tt.pct, tt.desc, tt.ok)
		}
	}
}

// writeStubScript writes a shell script standing in for the python analysis
// program. The invoker runs it as <binary> <script> <args...>, which works the
// same for sh as for python.
func writeStubScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "stub.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInvokerRunForwardsProgress(t *testing.T) {
	script := writeStubScript(t, `
echo "[PROGRESS] 10% - a"
echo "[PROGRESS] 55% - b" >&2
echo "[PROGRESS] 100% - c"
echo "[]" > "$2"
echo "{}" > "${3#--stats_output_file=}"
exit 0
`)
	work := t.TempDir()
	structured := filepath.Join(work, StructuredArtifact)
	stats := filepath.Join(work, StatsArtifact)

	inv := &Invoker{PythonBinary: "/bin/sh", ScriptPath: script, PriceFile: "price.json", Timeout: 30 * time.Second}
	var got []float64
	err := inv.Run(context.Background(), filepath.Join(work, "conversations.json"), structured, stats,
		func(pct float64, desc string) { got = append(got, pct) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 progress events, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("progress regressed: %v", got)
		}
	}
	if err := CheckArtifacts(structured, stats); err != nil {
		t.Fatalf("artifacts should exist: %v", err)
	}
}

func TestInvokerRunNonZeroExit(t *testing.T) {
	script := writeStubScript(t, `
echo "something went wrong" >&2
exit 1
`)
	inv := &Invoker{PythonBinary: "/bin/sh", ScriptPath: script, PriceFile: "price.json", Timeout: 30 * time.Second}
	err := inv.Run(context.Background(), "conv.json", "structured.json", "stats.json", nil)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}
}

func TestInvokerRunTimeout(t *testing.T) {
	script := writeStubScript(t, `
sleep 30
`)
	inv := &Invoker{PythonBinary: "/bin/sh", ScriptPath: script, PriceFile: "price.json", Timeout: 500 * time.Millisecond}
	start := time.Now()
	err := inv.Run(context.Background(), "conv.json", "structured.json", "stats.json", nil)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 15*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

func TestCheckArtifactsMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.json")
	if err := os.WriteFile(present, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := CheckArtifacts(present, filepath.Join(dir, "absent.json"))
	if !errors.Is(err, ErrIncompleteOutput) {
		t.Fatalf("expected ErrIncompleteOutput, got %v", err)
	}
}
