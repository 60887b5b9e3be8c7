package classifier

import (
	"strings"

	"github.com/crimson-sun/beacon/internal/model"
)

// phaseKeywords maps a project phase to its indicator keywords. Evaluated
// in phaseOrder; the first phase with a match wins.
var phaseKeywords = map[string][]string{
	"planning":   {"planning", "kickoff", "scoping", "estimate", "proposal"},
	"design":     {"design", "architecture", "prototype", "mockup", "wireframe"},
	"execution":  {"implementation", "development", "execution", "build", "rollout"},
	"testing":    {"testing", "qa", "uat", "validation", "verification"},
	"closure":    {"closure", "handover", "retrospective", "post-mortem", "wrap-up"},
	"monitoring": {"monitoring", "maintenance", "operations", "support", "on-call"},
}

var phaseOrder = []string{"planning", "design", "execution", "testing", "closure", "monitoring"}

// departmentPriorities maps known departments to their priority label.
var departmentPriorities = map[string]string{
	"pmo":                "project management",
	"project management": "project management",
	"program office":     "project management",
	"engineering":        "delivery",
	"it":                 "delivery",
	"operations":         "operations",
	"support":            "customer facing",
	"sales":              "customer facing",
	"customer success":   "customer facing",
}

// Urgency upgrade keywords. Content can raise the declared severity but
// never lower it.
var (
	criticalKeywords = []string{"critical path", "show stopper", "showstopper", "outage", "data loss"}
	urgentKeywords   = []string{"urgent", "asap", "immediately", "blocker", "blocked", "escalate"}
)

// extractContext derives the business-context bundle. Each element is
// extracted independently of the root-cause decision.
func extractContext(sig model.Signal, text string) model.BusinessContext {
	return model.BusinessContext{
		ProjectPhase:       projectPhase(text),
		DepartmentPriority: departmentPriority(sig, text),
		Urgency:            urgency(sig.Severity, text),
	}
}

func projectPhase(text string) string {
	for _, phase := range phaseOrder {
		for _, kw := range phaseKeywords[phase] {
			if strings.Contains(text, kw) {
				return phase
			}
		}
	}
	return ""
}

// departmentPriority resolves from metadata first, content keywords second.
func departmentPriority(sig model.Signal, text string) string {
	if dept := strings.ToLower(strings.TrimSpace(sig.Department)); dept != "" {
		if p, ok := departmentPriorities[dept]; ok {
			return p
		}
	}
	switch {
	case containsAny(text, "deadline", "milestone", "roadmap", "schedule"):
		return "project management"
	case containsAny(text, "customer", "client", "user complaint"):
		return "customer facing"
	}
	return "general"
}

// urgency starts from the declared severity and applies keyword upgrades.
func urgency(declared model.Severity, text string) model.Severity {
	u := declared
	if containsAny(text, urgentKeywords...) && u < model.SeverityHigh {
		u = model.SeverityHigh
	}
	if containsAny(text, criticalKeywords...) {
		u = model.SeverityCritical
	}
	return u
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
