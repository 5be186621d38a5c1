// Package interject implements the Pre-Tool Interjection Hook (C7): a
// short-lived check invoked before every tool call that may block a risky
// call, inject relevant ProcessKnowledge as context, or do nothing (spec
// §4.7). Grounded on the teacher's internal/dispatch package (shell_escape.go's
// command-safety classification style) for the Bash-command safety
// classifier, and internal/health's fast pre-flight-check discipline for the
// hook's soft wall-clock budget and swallow-everything robustness contract.
package interject

import (
	"context"
	"time"
)

// DefaultBudget is the hook's soft wall-clock target (spec §4.7 "Total wall
// time target < 400ms including subprocess overhead").
const DefaultBudget = 400 * time.Millisecond

// Call describes one pending tool invocation the hook evaluates (spec §4.7
// "Trigger").
type Call struct {
	ToolName  string
	ToolInput map[string]any
	CWD       string
}

// FilePath extracts the most common file-path-bearing input keys a tool call
// carries, if present.
func (c Call) FilePath() string {
	for _, key := range []string{"file_path", "path", "notebook_path"} {
		if v, ok := c.ToolInput[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Command returns the Bash tool's "command" input, if this call is a Bash
// invocation.
func (c Call) Command() string {
	if c.ToolName != "Bash" {
		return ""
	}
	v, _ := c.ToolInput["command"].(string)
	return v
}

// Outcome is the hook's decision (spec §4.7 "Decision (dual-mode)").
type Outcome struct {
	Block             bool
	Inject            bool
	InterjectionText  string // stderr text when Block; additionalContext text when Inject
}

// Options configures one evaluation (spec §6 TRIADS_NO_EXPERIENCE /
// TRIADS_NO_BLOCK env flags, surfaced here as explicit fields rather than
// reading the environment inside the decision logic, so the decision stays
// a pure function of its inputs).
type Options struct {
	ExperienceDisabled bool
	NoBlock            bool
	MaxInterjectItems  int
}

const defaultMaxInterjectItems = 5

// Evaluate runs the full hook pipeline for one call within budget and never
// returns an error: every internal failure collapses to a no-op Outcome per
// spec §4.7's robustness contract ("exit 0 or 2 only... internal errors are
// all swallowed"). query supplies the ProcessKnowledge matches for the
// current call, normally by loading the active triad's graph and filtering
// its nodes' trigger conditions.
func Evaluate(ctx context.Context, call Call, opts Options, query QueryFunc) Outcome {
	if opts.ExperienceDisabled || isReadOnly(call.ToolName) {
		return Outcome{}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return Outcome{}
	}

	if call.ToolName == "Bash" {
		if isSafeBashCommand(call.Command()) {
			return Outcome{}
		}
	}

	matches, err := safeQuery(ctx, query, call)
	if err != nil || len(matches) == 0 {
		return Outcome{}
	}

	maxItems := opts.MaxInterjectItems
	if maxItems <= 0 {
		maxItems = defaultMaxInterjectItems
	}

	if !opts.NoBlock && shouldBlock(call, matches) {
		return Outcome{Block: true, InterjectionText: formatBlock(matches, maxItems)}
	}

	return Outcome{Inject: true, InterjectionText: formatInject(matches, maxItems)}
}

// safeQuery insulates Evaluate from a panicking or erroring query
// implementation — any failure here must fall through to a no-op outcome,
// never a crash or an exit code outside {0, 2}.
func safeQuery(ctx context.Context, query QueryFunc, call Call) (matches []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches, err = nil, errRecovered
		}
	}()
	if query == nil {
		return nil, nil
	}
	return query(ctx, call)
}
