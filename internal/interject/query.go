package interject

import (
	"context"
	"errors"
	"strings"

	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

var errRecovered = errors.New("interject: recovered from panic in query")

// Match pairs a matched ProcessKnowledge node with the fields the dual-mode
// decision and formatters need (spec §4.7 "Query" / "Decision").
type Match struct {
	NodeID     string
	Label      string
	Priority   graphstore.Priority
	Confidence float64
	graphstore.ProcessKnowledge
}

// QueryFunc resolves the ProcessKnowledge nodes relevant to call — normally
// backed by loading the active triad's graph and filtering through
// TriggerConditions.Matches.
type QueryFunc func(ctx context.Context, call Call) ([]Match, error)

// NewGraphQuery builds a QueryFunc over a single already-loaded graph,
// deriving the call's action keywords from its tool name and the first word
// of a Bash command (spec §4.7 "any overlap between the call's file path,
// tool name, or action keywords"). activeTriad is also passed as the triad
// name, so nodes whose triad_names list it match every call.
func NewGraphQuery(activeTriad string, loadGraph func(triad string) (*graphstore.Graph, error)) QueryFunc {
	return func(ctx context.Context, call Call) ([]Match, error) {
		g, err := loadGraph(activeTriad)
		if err != nil {
			return nil, err
		}

		filePath := call.FilePath()
		keywords := actionKeywords(call)

		var matches []Match
		for _, node := range g.Nodes {
			if node.ProcessKnowledge == nil {
				continue
			}
			pk := node.ProcessKnowledge
			if !pk.TriggerConditions.Matches(call.ToolName, filePath, keywords, nil, activeTriad) {
				continue
			}
			var priority graphstore.Priority
			if node.Priority != nil {
				priority = *node.Priority
			}
			var confidence float64
			if node.Confidence != nil {
				confidence = *node.Confidence
			}
			matches = append(matches, Match{
				NodeID:           node.ID,
				Label:            node.Label,
				Priority:         priority,
				Confidence:       confidence,
				ProcessKnowledge: *pk,
			})
		}
		return matches, nil
	}
}

// actionKeywords derives a coarse keyword set from the call for trigger
// matching: the tool name lowercased, plus the first word of a Bash command
// (e.g. "git", "rm", "curl").
func actionKeywords(call Call) []string {
	var keywords []string
	if call.ToolName != "" {
		keywords = append(keywords, strings.ToLower(call.ToolName))
	}
	if cmd := call.Command(); cmd != "" {
		if word := firstWord(cmd); word != "" {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func firstWord(s string) string {
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				return s[start:i]
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
