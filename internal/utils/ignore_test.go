package utils_test

import (
	"testing"

	"github.com/temirov/repo2txt/internal/types"
	"github.com/temirov/repo2txt/internal/utils"
)

func TestShouldIgnore(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		rules    types.IgnoreRuleSet
		expected bool
	}{
		{name: "nil_rules", path: "a/b/c.log", rules: nil, expected: false},
		{name: "empty_rules", path: "a/b/c.log", rules: types.IgnoreRuleSet{}, expected: false},
		{name: "suffix_glob_matches", path: "a/b/c.log", rules: types.NewIgnoreRuleSet("*.log"), expected: true},
		{name: "suffix_glob_misses", path: "a/b/c.txt", rules: types.NewIgnoreRuleSet("*.log"), expected: false},
		{name: "suffix_glob_requires_end", path: "a/b.log/c.txt", rules: types.NewIgnoreRuleSet("*.log"), expected: false},
		{name: "substring_directory", path: "proj/node_modules/x.js", rules: types.NewIgnoreRuleSet("node_modules"), expected: true},
		{name: "substring_misses", path: "proj/src/x.js", rules: types.NewIgnoreRuleSet("node_modules"), expected: false},
		{name: "substring_inside_name", path: "docs/latest.txt", rules: types.NewIgnoreRuleSet("test"), expected: true},
		{name: "substring_with_separator", path: "src/gen/out.go", rules: types.NewIgnoreRuleSet("src/gen"), expected: true},
		{name: "any_rule_matches", path: "build/app.bin", rules: types.NewIgnoreRuleSet("*.log", "build"), expected: true},
		{name: "empty_pattern_never_matches", path: "a.txt", rules: types.IgnoreRuleSet{""}, expected: false},
		{name: "star_without_dot_is_substring", path: "a/*b", rules: types.NewIgnoreRuleSet("*b"), expected: true},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if actual := utils.ShouldIgnore(testCase.path, testCase.rules); actual != testCase.expected {
				t.Fatalf("ShouldIgnore(%q, %v) = %v, want %v", testCase.path, testCase.rules, actual, testCase.expected)
			}
		})
	}
}

func TestShouldIgnoreIsOrderIndependent(t *testing.T) {
	paths := []string{"a/b/c.log", "proj/node_modules/x.js", "src/main.go", "latest.txt"}
	forward := types.NewIgnoreRuleSet("*.log", "node_modules", "test")
	reversed := types.NewIgnoreRuleSet("test", "node_modules", "*.log")
	for _, path := range paths {
		if utils.ShouldIgnore(path, forward) != utils.ShouldIgnore(path, reversed) {
			t.Fatalf("rule order changed the decision for %s", path)
		}
	}
}

func TestContainsGitSegment(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{path: ".git/HEAD", expected: true},
		{path: "nested/.git/config", expected: true},
		{path: "/tmp/repo/.git", expected: true},
		{path: ".gitignore", expected: false},
		{path: ".github/workflows/ci.yml", expected: false},
		{path: "src/main.go", expected: false},
	}
	for _, testCase := range testCases {
		if actual := utils.ContainsGitSegment(testCase.path); actual != testCase.expected {
			t.Fatalf("ContainsGitSegment(%q) = %v, want %v", testCase.path, actual, testCase.expected)
		}
	}
}

func TestContainsGitMarker(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{path: ".git/HEAD", expected: true},
		{path: ".gitignore", expected: true},
		{path: "sub/.gitmodules", expected: true},
		{path: ".github/workflows/ci.yml", expected: true},
		{path: "docs/git-guide.md", expected: false},
		{path: "src/main.go", expected: false},
	}
	for _, testCase := range testCases {
		if actual := utils.ContainsGitMarker(testCase.path); actual != testCase.expected {
			t.Fatalf("ContainsGitMarker(%q) = %v, want %v", testCase.path, actual, testCase.expected)
		}
	}
}

func TestRelativePathOrSelf(t *testing.T) {
	root := t.TempDir()
	if relative := utils.RelativePathOrSelf(root, root); relative != "." {
		t.Fatalf("expected '.', got %q", relative)
	}
	nested := root + "/a/b.txt"
	if relative := utils.RelativePathOrSelf(nested, root); relative != "a/b.txt" {
		t.Fatalf("expected a/b.txt, got %q", relative)
	}
}

func TestDeduplicatePatterns(t *testing.T) {
	result := utils.DeduplicatePatterns([]string{"a", "b", "a", "c", "b"})
	expected := []string{"a", "b", "c"}
	if len(result) != len(expected) {
		t.Fatalf("unexpected result %v", result)
	}
	for index := range expected {
		if result[index] != expected[index] {
			t.Fatalf("unexpected result %v", result)
		}
	}
}
