package profile

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/devscout/internal/github"
)

func sampleActivity() *Activity {
	commits := make([]*github.Commit, 0, 30)
	for i := 0; i < 30; i++ {
		commits = append(commits, &github.Commit{
			Login:     "alice",
			Message:   fmt.Sprintf("commit %d\nwith a body that must not leak", i),
			Additions: 10,
			Deletions: 5,
			Files:     []string{fmt.Sprintf("pkg/file%d.go", i%25), "docs/README.md"},
		})
	}
	return Aggregate("demo", commits, DefaultTagRules)["alice"]
}

func TestSelectEvidenceIsDeterministic(t *testing.T) {
	activity := sampleActivity()

	first := SelectEvidence(activity)
	second := SelectEvidence(activity)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical evidence for identical activity")
	}
}

func TestSelectEvidenceCapsAndDeduplicatesPaths(t *testing.T) {
	ev := SelectEvidence(sampleActivity())

	if len(ev.Paths) != EvidenceMaxPaths {
		t.Fatalf("expected %d paths, got %d", EvidenceMaxPaths, len(ev.Paths))
	}

	seen := make(map[string]struct{})
	for _, path := range ev.Paths {
		if _, ok := seen[path]; ok {
			t.Fatalf("duplicate path in evidence: %s", path)
		}
		seen[path] = struct{}{}
	}

	// First-seen order: the first commit's paths lead.
	if ev.Paths[0] != "pkg/file0.go" || ev.Paths[1] != "docs/README.md" {
		t.Fatalf("expected first-seen path order, got %v", ev.Paths[:2])
	}
}

func TestSelectEvidenceExcerptsMessages(t *testing.T) {
	ev := SelectEvidence(sampleActivity())

	if len(ev.Messages) != EvidenceMaxMsgs {
		t.Fatalf("expected %d messages, got %d", EvidenceMaxMsgs, len(ev.Messages))
	}
	for _, msg := range ev.Messages {
		if strings.Contains(msg, "\n") || strings.Contains(msg, "body") {
			t.Fatalf("expected first line only, got %q", msg)
		}
	}
}

func TestExcerptTruncatesLongFirstLine(t *testing.T) {
	long := strings.Repeat("x", 150) + "\nsecond line"

	got := excerpt(long)

	if len([]rune(got)) != EvidenceMaxMsgLen {
		t.Fatalf("expected %d runes, got %d", EvidenceMaxMsgLen, len([]rune(got)))
	}
}

func TestSelectEvidenceRanksTopTags(t *testing.T) {
	commits := []*github.Commit{
		{Login: "alice", Files: []string{
			"a.py", "b.py", "c.py",
			"a.js", "b.js",
			"a.go",
			"a.rs",
			"a.rb",
			"a.md",
		}},
	}
	activity := Aggregate("demo", commits, DefaultTagRules)["alice"]

	ev := SelectEvidence(activity)

	if len(ev.TopTags) != EvidenceTopTags {
		t.Fatalf("expected %d tags, got %d", EvidenceTopTags, len(ev.TopTags))
	}
	if ev.TopTags[0].Tag != "Python" || ev.TopTags[0].Count != 3 {
		t.Fatalf("expected Python x3 first, got %+v", ev.TopTags[0])
	}
	if ev.TopTags[1].Tag != "JavaScript" || ev.TopTags[1].Count != 2 {
		t.Fatalf("expected JavaScript x2 second, got %+v", ev.TopTags[1])
	}
}
