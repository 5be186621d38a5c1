package router

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/fsutil"
)

// DefaultTelemetryRotateBytes is the spec §4.3 default rotation size.
const DefaultTelemetryRotateBytes int64 = 10 * 1024 * 1024

// telemetryRetainedGenerations is how many rotated logs are kept besides
// the live file (spec §4.3 "retaining two older generations").
const telemetryRetainedGenerations = 2

// Method enumerates how a routing decision was reached (spec §4.3 Telemetry).
type Method string

const (
	MethodSemantic     Method = "semantic"
	MethodLLM          Method = "llm"
	MethodManual       Method = "manual"
	MethodGracePeriod  Method = "grace_period"
	MethodCancelled    Method = "cancelled"
)

// Record is one JSON-line telemetry entry (spec §4.3 "Telemetry").
type Record struct {
	Timestamp     time.Time      `json:"timestamp"`
	PromptSnippet string         `json:"prompt_snippet"`
	Triad         string         `json:"triad,omitempty"`
	Confidence    float64        `json:"confidence"`
	Method        Method         `json:"method"`
	LatencyMS     int64          `json:"latency_ms"`
	Overridden    bool           `json:"overridden,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

const maxPromptSnippet = 50

// TruncatePrompt trims prompt to at most maxPromptSnippet characters, per
// spec §4.3 "truncated prompt snippet (<=50 chars)".
func TruncatePrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxPromptSnippet {
		return prompt
	}
	return string(runes[:maxPromptSnippet])
}

// TelemetryWriter appends Records to an append-only JSONL log, rotating it
// atomically by rename once it exceeds RotateBytes (spec §4.3, §5 "Telemetry
// log: append-only with O_APPEND semantics; rotation performed atomically by
// rename").
type TelemetryWriter struct {
	Path        string
	RotateBytes int64
}

// NewTelemetryWriter constructs a writer at path. rotateBytes <= 0 uses the
// spec default of 10MB.
func NewTelemetryWriter(path string, rotateBytes int64) *TelemetryWriter {
	if rotateBytes <= 0 {
		rotateBytes = DefaultTelemetryRotateBytes
	}
	return &TelemetryWriter{Path: path, RotateBytes: rotateBytes}
}

// Append writes rec as one JSON line, rotating the log first if it has
// grown past RotateBytes.
func (w *TelemetryWriter) Append(rec Record) error {
	if err := fsutil.EnsureDir(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("router: telemetry: %w", err)
	}

	if err := w.rotateIfNeeded(); err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("router: telemetry: marshal record: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("router: telemetry: open %s: %w", w.Path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("router: telemetry: write %s: %w", w.Path, err)
	}
	return nil
}

func (w *TelemetryWriter) rotateIfNeeded() error {
	info, err := os.Stat(w.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("router: telemetry: stat %s: %w", w.Path, err)
	}
	if info.Size() < w.RotateBytes {
		return nil
	}

	// Shift .2 out (dropped), .1 -> .2, live -> .1, by rename (atomic, per
	// generation, never touching the in-progress live file mid-write).
	for gen := telemetryRetainedGenerations; gen >= 1; gen-- {
		src := w.generationPath(gen)
		if gen == telemetryRetainedGenerations {
			os.Remove(src)
			continue
		}
		dst := w.generationPath(gen + 1)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
	}
	return os.Rename(w.Path, w.generationPath(1))
}

func (w *TelemetryWriter) generationPath(gen int) string {
	return fmt.Sprintf("%s.%d", w.Path, gen)
}
