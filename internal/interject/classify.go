package interject

import "strings"

// readOnlyTools are never intercepted (spec §4.7 "Early exits").
var readOnlyTools = map[string]bool{
	"Read": true,
	"Grep": true,
	"Glob": true,
}

func isReadOnly(toolName string) bool {
	return readOnlyTools[toolName]
}

// safeBashPrefixes are known-safe commands the hook never blocks regardless
// of matched knowledge (spec §4.7 "recognized safe"). Grounded on the
// teacher's dispatch.ShellEscape family's approach of classifying by a fixed
// vocabulary rather than attempting a general shell parse.
var safeBashPrefixes = []string{
	"ls", "cat", "git status", "git diff", "git log", "git show",
	"echo", "grep", "pwd", "which", "wc", "head", "tail",
}

// riskyBashPrefixes are commands the hook treats as worth evaluating against
// matched ProcessKnowledge (spec §4.7 "known-risky set"). A command that is
// neither safe nor risky is treated as safe by default (spec's "safe
// default").
var riskyBashPrefixes = []string{
	"git commit", "git push", "git reset", "rm", "mv", "sudo",
	"curl", "chmod", "npm publish", "docker push",
}

// isSafeBashCommand classifies command per spec §4.7's three-way rule:
// a recognized-safe prefix is never blocked; a recognized-risky prefix is
// evaluated normally; anything else defaults to safe (never block).
func isSafeBashCommand(command string) bool {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return true
	}
	for _, prefix := range safeBashPrefixes {
		if hasCommandPrefix(trimmed, prefix) {
			return true
		}
	}
	for _, prefix := range riskyBashPrefixes {
		if hasCommandPrefix(trimmed, prefix) {
			return false
		}
	}
	return true
}

func hasCommandPrefix(command, prefix string) bool {
	if !strings.HasPrefix(command, prefix) {
		return false
	}
	rest := command[len(prefix):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}
