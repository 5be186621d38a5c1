// Command triads-workflow is the CLI front end for the Workflow Engine
// (C4): create/advance/complete/abandon/list operations over triad
// workflow instances, validated and enforced per spec §4.4. Styled after
// the teacher's cmd/cortex/main.go flag-parsing and slog logging
// conventions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/antigravity-dev/triads-runtime/internal/config"
	"github.com/antigravity-dev/triads-runtime/internal/workflow"
)

func configureLogger(dev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if dev {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func main() {
	configPath := flag.String("config", "triads.toml", "path to config file")
	dev := flag.Bool("dev", false, "use text log format (default is JSON)")
	command := flag.String("cmd", "", "one of: create, advance, complete, abandon, list")
	workflowType := flag.String("workflow-type", "", "workflow schema name (create)")
	title := flag.String("title", "", "instance title (create)")
	user := flag.String("user", "", "acting user")
	instanceID := flag.String("instance", "", "instance id (advance/complete/abandon)")
	toTriad := flag.String("to", "", "target triad id (advance)")
	skipReason := flag.String("reason", "", "skip/abandon reason")
	forceSkip := flag.Bool("force-skip", false, "allow a strict-mode emergency override (advance)")
	statusFilter := flag.String("status", "", "filter for list: active, completed, abandoned")
	flag.Parse()

	logger := configureLogger(*dev)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	mgr := workflow.NewManager(cfg.Paths.WorkflowsDir)
	schema, err := workflow.LoadSchema(cfg.Paths.SchemaFile)
	if err != nil {
		logger.Error("failed to load workflow schema", "error", err)
		os.Exit(1)
	}

	switch strings.ToLower(strings.TrimSpace(*command)) {
	case "create":
		runCreate(logger, mgr, *workflowType, *title, *user)
	case "advance":
		runAdvance(logger, mgr, schema, *instanceID, *toTriad, *user, *skipReason, *forceSkip)
	case "complete":
		runComplete(logger, mgr, *instanceID)
	case "abandon":
		runAbandon(logger, mgr, *instanceID, *skipReason)
	case "list":
		runList(logger, mgr, workflow.Status(*statusFilter))
	default:
		fmt.Fprintln(os.Stderr, "usage: triads-workflow -cmd={create,advance,complete,abandon,list} [flags]")
		os.Exit(2)
	}
}

func runCreate(logger *slog.Logger, mgr *workflow.Manager, workflowType, title, user string) {
	id, err := mgr.Create(workflowType, title, user, nil)
	if err != nil {
		logger.Error("create failed", "error", err)
		os.Exit(1)
	}
	printJSON(map[string]string{"instance_id": id})
}

func runAdvance(logger *slog.Logger, mgr *workflow.Manager, schema *workflow.Schema, instanceID, toTriad, user, reason string, forceSkip bool) {
	if instanceID == "" || toTriad == "" {
		logger.Error("advance requires -instance and -to")
		os.Exit(2)
	}

	inst, err := mgr.Load(instanceID)
	if err != nil {
		logger.Error("load instance failed", "error", err)
		os.Exit(1)
	}

	fromTriad := ""
	if idx := inst.LatestCompletedIndex(schema) + 1; idx >= 0 && idx < len(schema.Triads) {
		fromTriad = schema.Triads[idx].ID
	}

	vr := workflow.Validate(schema, inst, toTriad, nil, inst.Metrics)
	result := workflow.Enforce(vr, workflow.EnforceInput{
		FromTriad:  fromTriad,
		ToTriad:    toTriad,
		User:       user,
		SkipReason: reason,
		ForceSkip:  forceSkip,
	})

	if !result.Allowed {
		printJSON(result)
		os.Exit(1)
	}

	if result.RecordedDeviation != nil {
		if err := mgr.AddDeviation(instanceID, *result.RecordedDeviation); err != nil {
			logger.Error("recording deviation failed", "error", err)
			os.Exit(1)
		}
	}
	if fromTriad != "" && !inst.HasCompleted(fromTriad) {
		if err := mgr.MarkTriadCompleted(instanceID, fromTriad, 0); err != nil {
			logger.Error("marking triad completed failed", "error", err)
			os.Exit(1)
		}
	}
	printJSON(result)
}

func runComplete(logger *slog.Logger, mgr *workflow.Manager, instanceID string) {
	if instanceID == "" {
		logger.Error("complete requires -instance")
		os.Exit(2)
	}
	if err := mgr.Complete(instanceID); err != nil {
		logger.Error("complete failed", "error", err)
		os.Exit(1)
	}
	printJSON(map[string]string{"status": "completed"})
}

func runAbandon(logger *slog.Logger, mgr *workflow.Manager, instanceID, reason string) {
	if instanceID == "" {
		logger.Error("abandon requires -instance")
		os.Exit(2)
	}
	if err := mgr.Abandon(instanceID, reason); err != nil {
		logger.Error("abandon failed", "error", err)
		os.Exit(1)
	}
	printJSON(map[string]string{"status": "abandoned"})
}

func runList(logger *slog.Logger, mgr *workflow.Manager, status workflow.Status) {
	summaries, err := mgr.List(status)
	if err != nil {
		logger.Error("list failed", "error", err)
		os.Exit(1)
	}
	printJSON(summaries)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
