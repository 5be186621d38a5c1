package knowledge

import (
	"strings"

	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

// deploymentContextKeywords and securityKeywords drive the keyword-based
// priority escalation rules (spec §4.5 "Priority assignment").
var deploymentContextKeywords = []string{
	"deploy", "deployment", "release", "rollout", "production", "migration",
}

var securityKeywords = []string{
	"security", "vulnerability", "exploit", "credential", "secret", "auth",
	"permission", "injection", "cve",
}

const deploymentTriad = "deployment"

var validExplicitPriorities = map[graphstore.Priority]bool{
	graphstore.PriorityCritical: true,
	graphstore.PriorityHigh:     true,
	graphstore.PriorityMedium:   true,
	graphstore.PriorityLow:      true,
}

// AssignPriority implements spec §4.5's priority rules in their documented
// order: an explicit priority from the candidate wins if it names one of the
// four allowed levels; otherwise user_correction escalates to CRITICAL,
// repeated_mistake to HIGH; then deployment-context keywords combined with
// the target triad being "deployment" escalate to CRITICAL, bare security
// keywords to HIGH; anything left defaults to LOW.
func AssignPriority(c LessonCandidate, targetTriad string) graphstore.Priority {
	if validExplicitPriorities[c.ExplicitPriority] {
		return c.ExplicitPriority
	}

	switch c.Method {
	case DetectionUserCorrection:
		return graphstore.PriorityCritical
	case DetectionRepeatedMistake:
		return graphstore.PriorityHigh
	}

	text := strings.ToLower(c.Label + " " + c.Evidence)
	if containsAny(text, deploymentContextKeywords) && strings.EqualFold(targetTriad, deploymentTriad) {
		return graphstore.PriorityCritical
	}
	if containsAny(text, securityKeywords) {
		return graphstore.PriorityHigh
	}
	return graphstore.PriorityLow
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
