// Package scout orchestrates the profiling pipeline: fetch raw commits,
// aggregate per contributor, synthesize profiles, merge and persist them, and
// answer matching queries over the stored snapshot.
package scout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/github"
	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/profile"
	"go.uber.org/zap"
)

// ErrNoProfiles signals that matching was attempted against an empty store.
// Not a failure; callers translate it into an informational response.
var ErrNoProfiles = errors.New("no profiles available")

// ErrNoTargets signals an assignment run without target specifications.
var ErrNoTargets = errors.New("no target specifications available")

const (
	defaultWorkers     = 4
	defaultCommitLimit = 100
)

// RecordSource fetches raw activity records for a repository.
type RecordSource interface {
	ListRecentCommits(ref github.RepoRef, limit int) ([]*github.Commit, error)
}

type Config struct {
	// Workers bounds concurrent per-contributor synthesis calls.
	Workers int
	// CommitLimit caps how many recent commits are fetched per repository.
	CommitLimit int
	// TagRules overrides the default ordered tag detection rules.
	TagRules []profile.TagRule
}

type Deps struct {
	Source      RecordSource
	Synthesizer ai.Synthesizer
	Matcher     ai.Matcher
	Store       profile.Store
	Logger      *zap.Logger
	Metrics     *metrics.Manager
}

type Scout struct {
	source      RecordSource
	synthesizer ai.Synthesizer
	matcher     ai.Matcher
	store       profile.Store
	logger      *zap.Logger
	metrics     *metrics.Manager

	workers     int
	commitLimit int
	rules       []profile.TagRule
}

func New(cfg *Config, deps *Deps) *Scout {
	workers := defaultWorkers
	commitLimit := defaultCommitLimit
	rules := profile.DefaultTagRules

	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.CommitLimit > 0 {
			commitLimit = cfg.CommitLimit
		}
		if len(cfg.TagRules) > 0 {
			rules = cfg.TagRules
		}
	}

	return &Scout{
		source:      deps.Source,
		synthesizer: deps.Synthesizer,
		matcher:     deps.Matcher,
		store:       deps.Store,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		workers:     workers,
		commitLimit: commitLimit,
		rules:       rules,
	}
}

// UsingAI reports whether real reasoning-service calls are configured. When
// false the pipeline runs in demo mode: fallback profiles, keyword search and
// rule-based assignment.
func (s *Scout) UsingAI() bool {
	return s.matcher != nil
}

// SourceError records a repository whose fetch failed. Other sources of the
// same run are unaffected.
type SourceError struct {
	Ref string `json:"ref"`
	Err string `json:"error"`
}

// SynthesisResult is the outcome of one synthesis run.
type SynthesisResult struct {
	Profiles      *profile.Profiles
	FailedSources []SourceError
	UsingAI       bool
}

// SynthesizeProfiles fetches recent commits for every repository reference,
// aggregates them per contributor, synthesizes a profile for each contributor
// with at least profile.MinCommits commits in that repository, and merges
// profiles for contributors seen across repositories. The result is not
// persisted; call SaveProfiles with it.
func (s *Scout) SynthesizeProfiles(ctx context.Context, refs []string) (*SynthesisResult, error) {
	result := &SynthesisResult{
		Profiles: &profile.Profiles{},
		UsingAI:  s.UsingAI(),
	}

	merged := make(map[string]*profile.Profile)
	var order []string

	for _, raw := range refs {
		ref, err := github.ParseRepoRef(raw)
		if err != nil {
			result.FailedSources = append(result.FailedSources, SourceError{Ref: raw, Err: err.Error()})
			s.logger.Warn("skipping source", zap.String("ref", raw), zap.Error(err))
			continue
		}

		commits, err := s.source.ListRecentCommits(ref, s.commitLimit)
		if err != nil {
			result.FailedSources = append(result.FailedSources, SourceError{Ref: raw, Err: err.Error()})
			s.logger.Warn("source unavailable", zap.String("ref", ref.FullName()), zap.Error(err))
			continue
		}

		s.logger.Info("aggregating commits",
			zap.String("repo", ref.FullName()),
			zap.Int("commits", len(commits)),
		)

		for _, p := range s.synthesizeRepo(ctx, ref.Name, commits) {
			if _, seen := merged[p.Login]; !seen {
				order = append(order, p.Login)
			}
			merged[p.Login] = profile.Merge(merged[p.Login], p)
		}
	}

	if len(merged) == 0 && len(result.FailedSources) == len(refs) && len(refs) > 0 {
		return nil, fmt.Errorf("all sources failed: %s", result.FailedSources[0].Err)
	}

	for _, login := range order {
		result.Profiles.Items = append(result.Profiles.Items, merged[login])
	}

	return result, nil
}

// synthesizeRepo runs one aggregation pass and synthesizes profiles with a
// bounded worker pool. Contributors below the commit threshold produce no
// profile. The returned order is deterministic (sorted by login).
func (s *Scout) synthesizeRepo(ctx context.Context, repo string, commits []*github.Commit) []*profile.Profile {
	activities := profile.Aggregate(repo, commits, s.rules)

	logins := make([]string, 0, len(activities))
	for login, activity := range activities {
		if activity.EventCount() < profile.MinCommits {
			s.logger.Debug("skipping contributor below commit threshold",
				zap.String("login", login),
				zap.Int("commits", activity.EventCount()),
			)
			continue
		}
		logins = append(logins, login)
	}
	sort.Strings(logins)

	profiles := make([]*profile.Profile, len(logins))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for i, login := range logins {
		wg.Add(1)
		go func(i int, activity *profile.Activity) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			profiles[i] = s.synthesizer.Synthesize(ctx, activity)

			s.metrics.IncSynthesisRun()
			if profiles[i].Fallback {
				s.metrics.IncSynthesisFallback()
			}
		}(i, activities[login])
	}

	wg.Wait()

	return profiles
}

// SaveProfiles replaces the stored snapshot. Last save wins; there is no
// locking here by contract.
func (s *Scout) SaveProfiles(profiles *profile.Profiles) error {
	if err := s.store.Save(profiles.Items); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	s.metrics.SetProfilesStored(profiles.Len())
	s.logger.Info("profiles snapshot saved", zap.Int("count", profiles.Len()))

	return nil
}

// Profiles loads the current snapshot.
func (s *Scout) Profiles() (*profile.Profiles, error) {
	items, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return &profile.Profiles{Items: items}, nil
}

// MatchQuery answers a free-text search over the stored profiles. An empty
// store returns ErrNoProfiles without touching the reasoning service.
func (s *Scout) MatchQuery(ctx context.Context, query string) ([]*ai.SearchMatch, error) {
	s.metrics.IncSearchRequest()

	profiles, err := s.Profiles()
	if err != nil {
		return nil, err
	}

	if profiles.Len() == 0 {
		return nil, ErrNoProfiles
	}

	if !s.UsingAI() {
		return keywordSearch(query, profiles.Items), nil
	}

	matches, err := s.matcher.Search(ctx, query, profiles.Items)
	if err != nil {
		s.metrics.IncMatchFailure()
		return nil, err
	}

	return matches, nil
}

// AssignmentResult is the outcome of a structured assignment run.
type AssignmentResult struct {
	Matches      []*ai.PersonaMatch `json:"matches"`
	PersonaCount int                `json:"persona_count"`
	TargetCount  int                `json:"target_count"`
	GeneratedAt  time.Time          `json:"generated_at"`
	UsingAI      bool               `json:"using_ai"`
}

// RunAssignmentMatch pairs every stored profile with its best-fit targets.
func (s *Scout) RunAssignmentMatch(ctx context.Context, targets []*profile.TargetSpec) (*AssignmentResult, error) {
	s.metrics.IncAssignmentRequest()

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	profiles, err := s.Profiles()
	if err != nil {
		return nil, err
	}

	if profiles.Len() == 0 {
		return nil, ErrNoProfiles
	}

	var matches []*ai.PersonaMatch
	if s.UsingAI() {
		matches, err = s.matcher.Assign(ctx, profiles.Items, targets)
		if err != nil {
			s.metrics.IncMatchFailure()
			return nil, err
		}
	} else {
		matches = ruleBasedAssign(profiles.Items, targets)
	}

	return &AssignmentResult{
		Matches:      matches,
		PersonaCount: profiles.Len(),
		TargetCount:  len(targets),
		GeneratedAt:  time.Now().UTC(),
		UsingAI:      s.UsingAI(),
	}, nil
}
