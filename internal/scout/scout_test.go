package scout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/ai/gemini"
	"github.com/spigell/devscout/internal/github"
	"github.com/spigell/devscout/internal/profile"
	"go.uber.org/zap"
)

type stubSource struct {
	commits map[string][]*github.Commit
	errs    map[string]error
}

func (s *stubSource) ListRecentCommits(ref github.RepoRef, _ int) ([]*github.Commit, error) {
	if err, ok := s.errs[ref.FullName()]; ok {
		return nil, err
	}
	return s.commits[ref.FullName()], nil
}

type stubMatcher struct {
	searchCalls int
	assignCalls int
	matches     []*ai.SearchMatch
	personas    []*ai.PersonaMatch
	err         error
}

func (m *stubMatcher) Search(_ context.Context, _ string, _ []*profile.Profile) ([]*ai.SearchMatch, error) {
	m.searchCalls++
	return m.matches, m.err
}

func (m *stubMatcher) Assign(_ context.Context, _ []*profile.Profile, _ []*profile.TargetSpec) ([]*ai.PersonaMatch, error) {
	m.assignCalls++
	return m.personas, m.err
}

func newTestScout(t *testing.T, source RecordSource, matcher ai.Matcher) *Scout {
	t.Helper()
	return New(nil, &Deps{
		Source:      source,
		Synthesizer: gemini.NewSynthesizer(nil, 0, zap.NewNop()),
		Matcher:     matcher,
		Store:       profile.NewFileStore(filepath.Join(t.TempDir(), "profiles.json")),
		Logger:      zap.NewNop(),
	})
}

func TestSynthesizeProfilesDemoMode(t *testing.T) {
	source := &stubSource{commits: map[string][]*github.Commit{
		"acme/demo": {
			{Login: "alice", Name: "Alice", Message: "add api", Files: []string{"src/main.py"}},
			{Login: "alice", Name: "Alice", Message: "add ui", Files: []string{"app/index.js"}},
			{Login: "bob", Name: "Bob", Message: "one drive-by fix", Files: []string{"README.md"}},
		},
	}}
	s := newTestScout(t, source, nil)

	result, err := s.SynthesizeProfiles(context.Background(), []string{"acme/demo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UsingAI {
		t.Fatalf("expected demo mode")
	}
	if len(result.FailedSources) != 0 {
		t.Fatalf("unexpected failed sources: %+v", result.FailedSources)
	}

	// Bob has a single commit and must not get a profile.
	if result.Profiles.Len() != 1 {
		t.Fatalf("expected 1 profile, got %d", result.Profiles.Len())
	}

	alice := result.Profiles.FindByLogin("alice")
	if alice == nil {
		t.Fatalf("expected a profile for alice")
	}
	if alice.TotalCommits != 2 {
		t.Fatalf("expected 2 commits, got %d", alice.TotalCommits)
	}
	if !reflect.DeepEqual(alice.PrimaryLanguages, []string{"Python", "JavaScript"}) {
		t.Fatalf("unexpected languages: %v", alice.PrimaryLanguages)
	}
	if !alice.Fallback || alice.Summary != "Active contributor to demo" {
		t.Fatalf("expected the deterministic fallback profile, got %+v", alice)
	}
}

func TestSynthesizeProfilesMergesAcrossRepos(t *testing.T) {
	commitsFor := func(repo string, n int) []*github.Commit {
		commits := make([]*github.Commit, 0, n)
		for i := 0; i < n; i++ {
			commits = append(commits, &github.Commit{
				Login:   "bob",
				Name:    "Bob",
				Message: fmt.Sprintf("%s change %d", repo, i),
				Files:   []string{"main.go"},
			})
		}
		return commits
	}
	source := &stubSource{commits: map[string][]*github.Commit{
		"acme/first":  commitsFor("first", 5),
		"acme/second": commitsFor("second", 3),
	}}
	s := newTestScout(t, source, nil)

	result, err := s.SynthesizeProfiles(context.Background(), []string{"acme/first", "acme/second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bob := result.Profiles.FindByLogin("bob")
	if bob == nil {
		t.Fatalf("expected a merged profile for bob")
	}
	if bob.TotalCommits != 8 {
		t.Fatalf("expected summed commits 8, got %d", bob.TotalCommits)
	}
	// The later repository wins everything except the summed counter and the
	// expertise union.
	if bob.RepoAnalyzed != "second" {
		t.Fatalf("expected the newer repo to win, got %q", bob.RepoAnalyzed)
	}
	if !reflect.DeepEqual(bob.ExpertiseAreas, []string{"Code contribution"}) {
		t.Fatalf("expected deduplicated expertise union, got %v", bob.ExpertiseAreas)
	}
}

func TestSynthesizeProfilesIsolatesFailedSources(t *testing.T) {
	source := &stubSource{
		commits: map[string][]*github.Commit{
			"acme/good": {
				{Login: "alice", Message: "a", Files: []string{"a.py"}},
				{Login: "alice", Message: "b", Files: []string{"b.py"}},
			},
		},
		errs: map[string]error{"acme/down": errors.New("rate limited")},
	}
	s := newTestScout(t, source, nil)

	result, err := s.SynthesizeProfiles(context.Background(), []string{"acme/down", "acme/good"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.FailedSources) != 1 || result.FailedSources[0].Ref != "acme/down" {
		t.Fatalf("expected one failed source, got %+v", result.FailedSources)
	}
	if result.Profiles.Len() != 1 {
		t.Fatalf("expected the healthy source to produce profiles, got %d", result.Profiles.Len())
	}
}

func TestSynthesizeProfilesAllSourcesFailed(t *testing.T) {
	source := &stubSource{errs: map[string]error{"acme/down": errors.New("rate limited")}}
	s := newTestScout(t, source, nil)

	_, err := s.SynthesizeProfiles(context.Background(), []string{"acme/down"})
	if err == nil {
		t.Fatalf("expected an error when every source failed")
	}
}

func TestMatchQueryEmptyStoreSkipsMatcher(t *testing.T) {
	matcher := &stubMatcher{}
	s := newTestScout(t, &stubSource{}, matcher)

	_, err := s.MatchQuery(context.Background(), "who knows go?")
	if !errors.Is(err, ErrNoProfiles) {
		t.Fatalf("expected ErrNoProfiles, got %v", err)
	}
	if matcher.searchCalls != 0 {
		t.Fatalf("expected zero matcher calls, got %d", matcher.searchCalls)
	}
}

func TestMatchQueryDemoModeUsesKeywordSearch(t *testing.T) {
	s := newTestScout(t, &stubSource{}, nil)
	saved := &profile.Profiles{Items: []*profile.Profile{
		{Login: "alice", ExpertiseAreas: []string{"API Development"}, PrimaryLanguages: []string{"Python"}},
		{Login: "bob", ExpertiseAreas: []string{"UI Design"}},
	}}
	if err := s.SaveProfiles(saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	matches, err := s.MatchQuery(context.Background(), "looking for python api experience")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected only alice to match, got %d matches", len(matches))
	}
	if matches[0].Login != "alice" || matches[0].RelevanceScore != 50 {
		t.Fatalf("unexpected match: %+v", matches[0])
	}
}

func TestMatchQueryPropagatesMatcherError(t *testing.T) {
	matcher := &stubMatcher{err: ai.ErrUnparsable}
	s := newTestScout(t, &stubSource{}, matcher)
	if err := s.SaveProfiles(&profile.Profiles{Items: []*profile.Profile{{Login: "alice"}}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := s.MatchQuery(context.Background(), "anything")
	if !errors.Is(err, ai.ErrUnparsable) {
		t.Fatalf("expected ErrUnparsable, got %v", err)
	}
	if matcher.searchCalls != 1 {
		t.Fatalf("expected one matcher call, got %d", matcher.searchCalls)
	}
}

func TestRunAssignmentMatchRequiresTargets(t *testing.T) {
	s := newTestScout(t, &stubSource{}, nil)

	_, err := s.RunAssignmentMatch(context.Background(), nil)
	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
}

func TestRunAssignmentMatchDemoMode(t *testing.T) {
	s := newTestScout(t, &stubSource{}, nil)
	saved := &profile.Profiles{Items: []*profile.Profile{{
		Login:            "alice",
		Name:             "Alice",
		ExpertiseAreas:   []string{"API Development", "Testing"},
		PrimaryLanguages: []string{"Python", "Go"},
	}}}
	if err := s.SaveProfiles(saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	targets := []*profile.TargetSpec{
		{Name: "Backend Rework", Description: "API development and testing in Python and Go"},
		{Name: "Design Refresh", Description: "visual polish"},
	}

	result, err := s.RunAssignmentMatch(context.Background(), targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UsingAI {
		t.Fatalf("expected demo mode")
	}
	if result.PersonaCount != 1 || result.TargetCount != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected one persona match, got %d", len(result.Matches))
	}

	assignments := result.Matches[0].Assignments
	if len(assignments) != 2 {
		t.Fatalf("expected both targets ranked, got %d", len(assignments))
	}
	// Two expertise hits and two language hits score 6: high confidence.
	if assignments[0].TargetName != "Backend Rework" || assignments[0].Confidence != ai.ConfidenceHigh {
		t.Fatalf("unexpected best assignment: %+v", assignments[0])
	}
	if assignments[1].Confidence != ai.ConfidenceLow {
		t.Fatalf("expected low confidence for the unrelated target, got %+v", assignments[1])
	}
}
