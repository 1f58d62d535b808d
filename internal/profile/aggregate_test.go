package profile

import (
	"testing"

	"github.com/spigell/devscout/internal/github"
)

func TestAggregateGroupsByLogin(t *testing.T) {
	commits := []*github.Commit{
		{Login: "alice", Name: "Alice", Message: "add parser", Additions: 10, Deletions: 2, Files: []string{"parser/parse.go"}},
		{Login: "bob", Name: "Bob", Message: "fix docs", Additions: 1, Deletions: 1, Files: []string{"README.md"}},
		{Login: "alice", Name: "Alice", Message: "add tests", Additions: 30, Deletions: 0, Files: []string{"parser/parse_test.go"}},
	}

	activities := Aggregate("demo", commits, DefaultTagRules)

	if len(activities) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(activities))
	}

	alice := activities["alice"]
	if alice == nil {
		t.Fatalf("expected activity for alice")
	}
	if alice.EventCount() != 2 {
		t.Fatalf("expected 2 commits for alice, got %d", alice.EventCount())
	}
	if alice.MeanAdditions() != 20 {
		t.Fatalf("expected mean additions 20, got %v", alice.MeanAdditions())
	}
	if alice.Tags["Go"] != 2 {
		t.Fatalf("expected 2 Go files for alice, got %d", alice.Tags["Go"])
	}
}

func TestAggregateDropsRecordsWithoutLogin(t *testing.T) {
	commits := []*github.Commit{
		{Login: "", Message: "orphan commit", Files: []string{"main.go"}},
		{Login: "alice", Message: "real commit"},
	}

	activities := Aggregate("demo", commits, DefaultTagRules)

	if len(activities) != 1 {
		t.Fatalf("expected 1 contributor, got %d", len(activities))
	}
	if _, ok := activities["alice"]; !ok {
		t.Fatalf("expected activity for alice")
	}
}

func TestAggregateKeepsCountersWithoutFiles(t *testing.T) {
	commits := []*github.Commit{
		{Login: "alice", Message: "first", Additions: 5, Deletions: 3},
		{Login: "alice", Message: "second", Additions: 7, Deletions: 1},
	}

	activities := Aggregate("demo", commits, DefaultTagRules)

	alice := activities["alice"]
	if alice.MeanAdditions() != 6 {
		t.Fatalf("expected mean additions 6, got %v", alice.MeanAdditions())
	}
	if alice.MeanDeletions() != 2 {
		t.Fatalf("expected mean deletions 2, got %v", alice.MeanDeletions())
	}
	if len(alice.Paths) != 0 {
		t.Fatalf("expected no paths, got %v", alice.Paths)
	}
	if len(alice.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", alice.Tags)
	}
}

func TestDetectTagFirstRuleWins(t *testing.T) {
	rules := []TagRule{
		{".config.js", "Config"},
		{".js", "JavaScript"},
	}

	tag, ok := DetectTag(rules, "webpack.config.js")
	if !ok || tag != "Config" {
		t.Fatalf("expected Config from first rule, got %q", tag)
	}

	tag, ok = DetectTag(rules, "src/index.js")
	if !ok || tag != "JavaScript" {
		t.Fatalf("expected JavaScript, got %q", tag)
	}

	if _, ok := DetectTag(rules, "Makefile"); ok {
		t.Fatalf("expected no tag for unmatched path")
	}
}

func TestTopTagsBreaksTiesByFirstSeen(t *testing.T) {
	commits := []*github.Commit{
		{Login: "alice", Files: []string{"app.rb", "main.py", "other.py", "util.rb"}},
	}

	activities := Aggregate("demo", commits, DefaultTagRules)

	tags := activities["alice"].TopTags(2)
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", tags)
	}
	// Both have count 2; Ruby was seen first.
	if tags[0] != "Ruby" || tags[1] != "Python" {
		t.Fatalf("expected first-seen tie-break [Ruby Python], got %v", tags)
	}
}
