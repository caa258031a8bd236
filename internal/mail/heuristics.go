package mail

import "strings"

// heuristicRule is one deterministic classification rule. Rules are
// evaluated in order and the first match wins.
type heuristicRule struct {
	category Category
	matches  func(subject, sender string) bool
}

var heuristicRules = []heuristicRule{
	{CategorySpam, func(subject, sender string) bool {
		return strings.Contains(subject, "!!!") ||
			strings.Contains(subject, "won") ||
			strings.Contains(sender, ".xyz")
	}},
	{CategoryNewsletter, func(_, sender string) bool {
		return strings.Contains(sender, "newsletter") || strings.Contains(sender, "digest")
	}},
	{CategoryToDo, func(subject, _ string) bool {
		for _, phrase := range []string{"action required", "please", "request", "need"} {
			if strings.Contains(subject, phrase) {
				return true
			}
		}
		return false
	}},
}

// HeuristicCategory classifies a message from its subject and sender
// alone. It is the deterministic fallback used when the model response
// contains no recognizable label, and is a pure function of its inputs.
// Anything no rule claims is treated as Important.
func HeuristicCategory(subject, sender string) Category {
	subject = strings.ToLower(subject)
	sender = strings.ToLower(sender)
	for _, rule := range heuristicRules {
		if rule.matches(subject, sender) {
			return rule.category
		}
	}
	return CategoryImportant
}
