// Package config loads and validates the triads runtime's TOML configuration,
// with environment variable overrides applied on top of the decoded file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that unmarshals from TOML strings like "60s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the root of the runtime's configuration file (triads.toml).
type Config struct {
	Paths    Paths    `toml:"paths"`
	Router   Router   `toml:"router"`
	Store    Store    `toml:"store"`
	Workflow Workflow `toml:"workflow"`
	Interject Interject `toml:"interject"`
}

// Paths locates every file this system owns on disk (spec §6 "File formats").
type Paths struct {
	Home          string `toml:"home"`           // defaults to $HOME
	GraphsDir     string `toml:"graphs_dir"`      // <home>/.claude/graphs
	WorkflowsDir  string `toml:"workflows_dir"`   // <home>/.claude/workflows
	SchemaFile    string `toml:"schema_file"`     // <workflows_dir>/../workflow.json
	RouterState   string `toml:"router_state"`    // <home>/.claude/router_state.json
	TelemetryLog  string `toml:"telemetry_log"`   // <home>/.claude/router/logs/routing_telemetry.jsonl
}

// Router holds the thresholds and timing knobs from spec §4.3.
type Router struct {
	ConfidenceThreshold  float64  `toml:"confidence_threshold"`
	AmbiguityThreshold   float64  `toml:"ambiguity_threshold"`
	GraceTurns           int      `toml:"grace_turns"`
	GraceMinutes         int      `toml:"grace_minutes"`
	LLMTimeoutMS         int      `toml:"llm_timeout_ms"`
	TelemetryRotateBytes int64    `toml:"telemetry_rotate_bytes"`
	TrainingMode         bool     `toml:"training_mode"`
	ModelPath            string   `toml:"model_path"`
}

// Store holds Graph Store tuning (spec §4.1).
type Store struct {
	BackupRetention int `toml:"backup_retention"`
}

// Workflow holds Workflow Engine defaults (spec §4.4).
type Workflow struct {
	DefaultEnforcementMode string `toml:"default_enforcement_mode"`
}

// Interject configures the Pre-Tool-Use Interjection Hook (spec §4.7, §9).
type Interject struct {
	BudgetMS            int      `toml:"budget_ms"`
	VersionFilePatterns []string `toml:"version_file_patterns"`
	MaxChecklistItems   int      `toml:"max_checklist_items"`
}

// Clone returns a deep copy of cfg so callers can safely mutate the result.
func (cfg *Config) Clone() *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	cloned.Interject.VersionFilePatterns = cloneStringSlice(cfg.Interject.VersionFilePatterns)
	return &cloned
}

func cloneStringSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Load reads, defaults, env-overrides and validates a triads.toml configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
			// Missing config file is not fatal; defaults + env vars still apply.
		} else if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}
	normalizePaths(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Router.ConfidenceThreshold == 0 {
		cfg.Router.ConfidenceThreshold = 0.70
	}
	if cfg.Router.AmbiguityThreshold == 0 {
		cfg.Router.AmbiguityThreshold = 0.10
	}
	if cfg.Router.GraceTurns == 0 {
		cfg.Router.GraceTurns = 5
	}
	if cfg.Router.GraceMinutes == 0 {
		cfg.Router.GraceMinutes = 8
	}
	if cfg.Router.LLMTimeoutMS == 0 {
		cfg.Router.LLMTimeoutMS = 2000
	}
	if cfg.Router.TelemetryRotateBytes == 0 {
		cfg.Router.TelemetryRotateBytes = 10 * 1024 * 1024
	}
	if cfg.Store.BackupRetention == 0 {
		cfg.Store.BackupRetention = 5
	}
	if cfg.Workflow.DefaultEnforcementMode == "" {
		cfg.Workflow.DefaultEnforcementMode = "recommended"
	}
	if cfg.Interject.BudgetMS == 0 {
		cfg.Interject.BudgetMS = 400
	}
	if cfg.Interject.MaxChecklistItems == 0 {
		cfg.Interject.MaxChecklistItems = 5
	}
	if len(cfg.Interject.VersionFilePatterns) == 0 {
		// These defaults cover common plugin/package manifest shapes. The
		// interject package's block-for-version-file rule does not read this
		// field; it matches against its own fixed list in
		// internal/interject/decision.go.
		cfg.Interject.VersionFilePatterns = []string{
			"**/plugin.json",
			"**/package.json",
			"**/go.mod",
			"**/Cargo.toml",
			"**/pyproject.toml",
			"**/CHANGELOG.md",
			"**/*.version",
		}
	}
}

// applyEnvOverrides implements the CLAUDE_ROUTER_* overrides from spec §6,
// validating numeric ranges before accepting them.
func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_CONFIDENCE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("CLAUDE_ROUTER_CONFIDENCE must be in [0,1], got %q", v)
		}
		cfg.Router.ConfidenceThreshold = f
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_SIMILARITY_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("CLAUDE_ROUTER_SIMILARITY_THRESHOLD must be in [0,1], got %q", v)
		}
		cfg.Router.AmbiguityThreshold = f
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_GRACE_TURNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("CLAUDE_ROUTER_GRACE_TURNS must be a non-negative integer, got %q", v)
		}
		cfg.Router.GraceTurns = n
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_GRACE_MINUTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("CLAUDE_ROUTER_GRACE_MINUTES must be a non-negative integer, got %q", v)
		}
		cfg.Router.GraceMinutes = n
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_LLM_TIMEOUT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 100 || n > 10000 {
			return fmt.Errorf("CLAUDE_ROUTER_LLM_TIMEOUT must be in [100,10000] ms, got %q", v)
		}
		cfg.Router.LLMTimeoutMS = n
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_TRAINING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLAUDE_ROUTER_TRAINING must be a bool, got %q", v)
		}
		cfg.Router.TrainingMode = b
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_TELEMETRY"); ok {
		cfg.Paths.TelemetryLog = v
	}
	if v, ok := os.LookupEnv("CLAUDE_ROUTER_MODEL_PATH"); ok {
		cfg.Router.ModelPath = v
	}
	return nil
}

func normalizePaths(cfg *Config) {
	home := strings.TrimSpace(cfg.Paths.Home)
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home == "" {
		home = "."
	}
	cfg.Paths.Home = home

	claudeDir := filepath.Join(home, ".claude")
	if cfg.Paths.GraphsDir == "" {
		cfg.Paths.GraphsDir = filepath.Join(claudeDir, "graphs")
	}
	if cfg.Paths.WorkflowsDir == "" {
		cfg.Paths.WorkflowsDir = filepath.Join(claudeDir, "workflows")
	}
	if cfg.Paths.SchemaFile == "" {
		cfg.Paths.SchemaFile = filepath.Join(filepath.Dir(cfg.Paths.WorkflowsDir), "workflow.json")
	}
	if cfg.Paths.RouterState == "" {
		cfg.Paths.RouterState = filepath.Join(claudeDir, "router_state.json")
	}
	if cfg.Paths.TelemetryLog == "" {
		cfg.Paths.TelemetryLog = filepath.Join(claudeDir, "router", "logs", "routing_telemetry.jsonl")
	}
}

func validate(cfg *Config) error {
	if cfg.Router.ConfidenceThreshold < 0 || cfg.Router.ConfidenceThreshold > 1 {
		return fmt.Errorf("router.confidence_threshold must be in [0,1]")
	}
	if cfg.Router.AmbiguityThreshold < 0 || cfg.Router.AmbiguityThreshold > 1 {
		return fmt.Errorf("router.ambiguity_threshold must be in [0,1]")
	}
	if cfg.Router.LLMTimeoutMS < 100 || cfg.Router.LLMTimeoutMS > 10000 {
		return fmt.Errorf("router.llm_timeout_ms must be in [100,10000]")
	}
	if cfg.Store.BackupRetention < 0 {
		return fmt.Errorf("store.backup_retention must be >= 0")
	}
	switch cfg.Workflow.DefaultEnforcementMode {
	case "strict", "recommended", "optional":
	default:
		return fmt.Errorf("workflow.default_enforcement_mode must be strict, recommended, or optional, got %q", cfg.Workflow.DefaultEnforcementMode)
	}
	if cfg.Interject.BudgetMS <= 0 {
		return fmt.Errorf("interject.budget_ms must be > 0")
	}
	return nil
}
