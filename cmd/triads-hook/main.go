// Command triads-hook is the Pre-Tool Interjection Hook (C7) binary: read a
// pending tool call on stdin, decide block/inject/no-op within a soft wall
// clock budget, and communicate the result purely through exit code and
// stdout/stderr per the host's subprocess hook protocol (spec §4.7, §6).
// Styled after the teacher's cmd/cortex/main.go flag-parsing conventions,
// but this process must never crash: every failure path collapses to the
// same exit-0-no-output no-op the spec requires.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/config"
	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
	"github.com/antigravity-dev/triads-runtime/internal/interject"
)

// hookRequest is the stdin payload the host sends before dispatching a tool
// call (spec §6 "Subprocess + stdin/stdout protocol for hooks").
type hookRequest struct {
	ToolName    string         `json:"tool_name"`
	ToolInput   map[string]any `json:"tool_input"`
	CWD         string         `json:"cwd"`
	ActiveTriad string         `json:"active_triad"`
}

type injectOutput struct {
	AdditionalContext string `json:"additionalContext"`
}

func main() {
	os.Exit(run())
}

// run implements the full robustness contract itself: the only values it
// ever returns are 0 or 2, because every fallible step is guarded.
func run() int {
	configPath := flag.String("config", "triads.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return 0
	}

	budget := time.Duration(cfg.Interject.BudgetMS) * time.Millisecond
	if budget <= 0 {
		budget = interject.DefaultBudget
	}
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return 0
	}

	var req hookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return 0
	}

	opts := interject.Options{
		ExperienceDisabled: envBool("TRIADS_NO_EXPERIENCE"),
		NoBlock:            envBool("TRIADS_NO_BLOCK"),
		MaxInterjectItems:  envInt("CLAUDE_EXPERIENCE_MAX_ITEMS", cfg.Interject.MaxChecklistItems),
	}

	store := graphstore.New(cfg.Paths.GraphsDir, cfg.Store.BackupRetention)
	query := interject.NewGraphQuery(req.ActiveTriad, func(triad string) (*graphstore.Graph, error) {
		return store.Load(triad, true)
	})

	outcome := interject.Evaluate(ctx, interject.Call{
		ToolName:  req.ToolName,
		ToolInput: req.ToolInput,
		CWD:       req.CWD,
	}, opts, query)

	switch {
	case outcome.Block:
		fmt.Fprintln(os.Stderr, outcome.InterjectionText)
		return 2
	case outcome.Inject:
		data, err := json.Marshal(injectOutput{AdditionalContext: outcome.InterjectionText})
		if err != nil {
			return 0
		}
		fmt.Println(string(data))
		return 0
	default:
		return 0
	}
}

func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func envInt(name string, fallback int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
