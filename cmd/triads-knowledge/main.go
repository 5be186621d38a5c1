// Command triads-knowledge is the CLI front end for the Knowledge Handler
// (C5): applying [GRAPH_UPDATE]/[PRE_FLIGHT_CHECK] blocks from agent output
// to the graph store, and extracting lesson candidates from free-form text.
// Styled after the teacher's cmd/cortex/main.go flag-parsing and slog
// logging conventions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/config"
	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
	"github.com/antigravity-dev/triads-runtime/internal/knowledge"
)

func configureLogger(dev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if dev {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func loadAgentTriadMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing agent-triad map %s: %w", path, err)
	}
	return m, nil
}

func main() {
	configPath := flag.String("config", "triads.toml", "path to config file")
	dev := flag.Bool("dev", false, "use text log format (default is JSON)")
	command := flag.String("cmd", "apply", "one of: apply, extract-lessons")
	inputPath := flag.String("input", "-", "path to agent output text (- for stdin)")
	agentName := flag.String("agent", "", "name of the agent that produced the output")
	agentTriadMapPath := flag.String("agent-triad-map", "", "path to a JSON {agent_name: triad_id} lookup")
	targetTriad := flag.String("target-triad", "", "triad a lesson candidate belongs to (extract-lessons)")
	flag.Parse()

	logger := configureLogger(*dev)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	text, err := readInput(*inputPath)
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "apply":
		runApply(logger, cfg, text, *agentName, *agentTriadMapPath)
	case "extract-lessons":
		runExtractLessons(logger, text, *targetTriad)
	default:
		fmt.Fprintln(os.Stderr, "usage: triads-knowledge -cmd={apply,extract-lessons} [flags]")
		os.Exit(2)
	}
}

func runApply(logger *slog.Logger, cfg *config.Config, text, agentName, agentTriadMapPath string) {
	agentTriads, err := loadAgentTriadMap(agentTriadMapPath)
	if err != nil {
		logger.Error("failed to load agent-triad map", "error", err)
		os.Exit(1)
	}

	lookup := knowledge.TriadLookup(func(name string) (string, bool) {
		triad, ok := agentTriads[name]
		return triad, ok
	})

	store := graphstore.New(cfg.Paths.GraphsDir, cfg.Store.BackupRetention)
	result, err := knowledge.ApplyUpdates(store, time.Now(), text, agentName, lookup)
	if err != nil {
		logger.Error("apply failed", "error", err)
		os.Exit(1)
	}

	if len(result.Violations) > 0 {
		logger.Warn("quality gate flagged updates", "count", len(result.Violations))
	}
	printJSON(result)
}

func runExtractLessons(logger *slog.Logger, text, targetTriad string) {
	candidates := knowledge.ExtractLessons(text)
	now := time.Now()

	type lessonOut struct {
		Candidate knowledge.LessonCandidate `json:"candidate"`
		Node      graphstore.Node           `json:"node"`
	}

	out := make([]lessonOut, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, lessonOut{
			Candidate: c,
			Node:      knowledge.BuildNode(c, targetTriad, "triads-knowledge", now),
		})
	}

	if len(out) == 0 {
		logger.Info("no lesson candidates detected")
	}
	printJSON(out)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
