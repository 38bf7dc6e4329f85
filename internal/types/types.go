// Package types defines every cross‑package data structure used by the repo2txt CLI.
package types

const (
	CommandExtract = "extract"
	CommandServe   = "serve"
	CommandInit    = "init"

	MethodGit     = "git"
	MethodArchive = "archive"

	// FormatText labels plain-text document responses of the command server.
	FormatText = "text"

	// StandardOutputPath selects standard output as the document destination.
	StandardOutputPath = "-"
)

// IgnoreRuleSet is an ordered collection of ignore patterns.
// A pattern of the form "*.ext" matches any path ending in ".ext"; every other
// pattern matches when it appears anywhere in the path.
type IgnoreRuleSet []string

// NewIgnoreRuleSet returns a rule set holding the non-empty patterns in order.
// Duplicates are dropped; the first occurrence wins.
func NewIgnoreRuleSet(patterns ...string) IgnoreRuleSet {
	seen := make(map[string]struct{}, len(patterns))
	rules := make(IgnoreRuleSet, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if _, exists := seen[pattern]; exists {
			continue
		}
		seen[pattern] = struct{}{}
		rules = append(rules, pattern)
	}
	return rules
}

// Merge returns a rule set containing the receiver's patterns followed by additional ones.
func (rules IgnoreRuleSet) Merge(additional ...string) IgnoreRuleSet {
	combined := make([]string, 0, len(rules)+len(additional))
	combined = append(combined, rules...)
	combined = append(combined, additional...)
	return NewIgnoreRuleSet(combined...)
}
