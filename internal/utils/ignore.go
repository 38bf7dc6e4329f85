package utils

import (
	"strings"

	"github.com/temirov/repo2txt/internal/types"
)

const suffixGlobPrefix = "*."

// ShouldIgnore reports whether path is excluded by any rule.
//
// A rule of the form "*.ext" matches when path ends with ".ext". Any other rule
// matches when it occurs anywhere in path, separators included, so "test" also
// excludes "latest.txt". Rules are evaluated as a logical OR and their order is
// irrelevant. An empty rule set excludes nothing.
func ShouldIgnore(path string, rules types.IgnoreRuleSet) bool {
	for _, rule := range rules {
		if rule == "" {
			continue
		}
		if strings.HasPrefix(rule, suffixGlobPrefix) {
			if strings.HasSuffix(path, strings.TrimPrefix(rule, "*")) {
				return true
			}
			continue
		}
		if strings.Contains(path, rule) {
			return true
		}
	}
	return false
}
