package router

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestTelemetryWriter_AppendCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router_telemetry.jsonl")
	w := NewTelemetryWriter(path, 0)

	if err := w.Append(Record{Timestamp: time.Now(), Triad: "design", Method: MethodSemantic}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if countLines(t, path) != 1 {
		t.Fatalf("expected 1 line")
	}
	if w.RotateBytes != DefaultTelemetryRotateBytes {
		t.Fatalf("expected default rotate size, got %d", w.RotateBytes)
	}
}

func TestTelemetryWriter_RotatesPastThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router_telemetry.jsonl")
	w := NewTelemetryWriter(path, 200)

	for i := 0; i < 20; i++ {
		if err := w.Append(Record{Timestamp: time.Now(), Triad: "design", Method: MethodSemantic, Confidence: 0.9}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected live file to exist: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected rotated generation .1 to exist: %v", err)
	}
}

func TestTelemetryWriter_RetainsOnlyTwoGenerations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router_telemetry.jsonl")
	w := NewTelemetryWriter(path, 80)

	for i := 0; i < 60; i++ {
		if err := w.Append(Record{Timestamp: time.Now(), Triad: "design", Method: MethodSemantic}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".3"); err == nil {
		t.Fatalf("expected no third generation to be retained")
	}
}

func TestTruncatePrompt(t *testing.T) {
	short := "short prompt"
	if TruncatePrompt(short) != short {
		t.Fatalf("short prompt should be unchanged")
	}

	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	got := TruncatePrompt(long)
	if len([]rune(got)) != maxPromptSnippet {
		t.Fatalf("expected truncation to %d runes, got %d", maxPromptSnippet, len([]rune(got)))
	}
}
