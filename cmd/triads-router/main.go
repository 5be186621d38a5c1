// Command triads-router is the CLI front end for the Router (C3): it runs
// one prompt through the semantic/LLM/manual routing pipeline and prints the
// resulting Decision, styled after the teacher's cmd/cortex/main.go
// flag-parsing and slog logging conventions.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/config"
	"github.com/antigravity-dev/triads-runtime/internal/router"
)

func configureLogger(dev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if dev {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// profileFile is the on-disk shape of the triad-profile corpus the Router
// embeds at startup (spec §4.3 step 1 "Pre-compute per-triad embeddings").
type profileFile struct {
	TriadID     string   `json:"triad_id"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

func loadProfiles(path string) ([]router.TriadProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles %s: %w", path, err)
	}
	var raw []profileFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}
	profiles := make([]router.TriadProfile, 0, len(raw))
	for _, r := range raw {
		profiles = append(profiles, router.NewTriadProfile(r.TriadID, r.Description, r.Examples))
	}
	return profiles, nil
}

func main() {
	configPath := flag.String("config", "triads.toml", "path to config file")
	profilesPath := flag.String("profiles", "triad_profiles.json", "path to triad profile corpus")
	dev := flag.Bool("dev", false, "use text log format (default is JSON)")
	sessionID := flag.String("session", "default", "router session id")
	prompt := flag.String("prompt", "", "prompt to route; reads stdin if empty")
	explain := flag.Bool("explain", false, "print the human-readable explanation instead of JSON")
	flag.Parse()

	logger := configureLogger(*dev)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	profiles, err := loadProfiles(*profilesPath)
	if err != nil {
		logger.Error("failed to load triad profiles", "error", err)
		os.Exit(1)
	}

	text := *prompt
	if text == "" {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			text = scanner.Text()
		}
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: triads-router -prompt \"...\" [flags] (or pipe a prompt on stdin)")
		os.Exit(2)
	}

	var disambiguator router.Disambiguator
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		disambiguator = router.NewCircuitBreakingDisambiguator(
			router.NewAnthropicDisambiguatorFromAPIKey(apiKey, cfg.Router.ModelPath),
		)
	}

	r := &router.Router{
		Profiles:      profiles,
		Disambiguator: disambiguator,
		States:        router.NewStateStore(cfg.Paths.RouterState),
		Telemetry:     router.NewTelemetryWriter(cfg.Paths.TelemetryLog, cfg.Router.TelemetryRotateBytes),
		Config: router.Config{
			ConfidenceThreshold: cfg.Router.ConfidenceThreshold,
			AmbiguityThreshold:  cfg.Router.AmbiguityThreshold,
			Grace: router.GraceConfig{
				Turns:   cfg.Router.GraceTurns,
				Minutes: cfg.Router.GraceMinutes,
			},
			LLMTimeout:   time.Duration(cfg.Router.LLMTimeoutMS) * time.Millisecond,
			TrainingMode: cfg.Router.TrainingMode,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Config.LLMTimeout+time.Second)
	defer cancel()

	decision, err := r.Route(ctx, *sessionID, text, nil)
	if err != nil {
		logger.Error("routing failed", "error", err)
		os.Exit(1)
	}

	if *explain {
		fmt.Println(router.ExplainDecision(decision))
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(decision)
}
