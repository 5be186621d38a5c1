package interject

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

// versionFilePatterns names the files whose edits trigger the
// block-for-version-file rule (spec §4.7 "file path matches the version-file
// pattern set"). The list is fixed here; Config.Interject.VersionFilePatterns
// is not consulted.
var versionFilePatterns = []string{
	"**/.claude-plugin/plugin.json", ".claude-plugin/plugin.json",
	"**/package.json", "**/pyproject.toml", "**/Cargo.toml", "**/go.mod",
	"**/VERSION", "VERSION", "**/CHANGELOG.md",
}

const versionFileConfidenceThreshold = 0.85
const veryHighConfidenceThreshold = 0.95

// shouldBlock implements spec §4.7's dual-mode block rules: a call is
// blocked if EITHER rule holds for any matched node.
func shouldBlock(call Call, matches []Match) bool {
	filePath := call.FilePath()
	for _, m := range matches {
		if blockForVersionFile(m, filePath) || blockForVeryHighConfidence(m) {
			return true
		}
	}
	return false
}

func blockForVersionFile(m Match, filePath string) bool {
	if m.Priority != graphstore.PriorityCritical || m.ProcessType != graphstore.ProcessChecklist {
		return false
	}
	if m.Confidence < versionFileConfidenceThreshold {
		return false
	}
	if filePath == "" {
		return false
	}
	return isVersionFile(filePath)
}

func blockForVeryHighConfidence(m Match) bool {
	return m.Priority == graphstore.PriorityCritical && m.Confidence >= veryHighConfidenceThreshold
}

func isVersionFile(filePath string) bool {
	for _, pattern := range versionFilePatterns {
		if ok, err := doublestar.Match(pattern, filePath); err == nil && ok {
			return true
		}
	}
	return false
}
