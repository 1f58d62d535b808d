package ai

import (
	"context"
	"errors"

	"github.com/spigell/devscout/internal/profile"
)

// ErrUnparsable marks reasoning-service output that failed structural
// validation. Matching has no deterministic fallback, so callers see it.
var ErrUnparsable = errors.New("unparsable reasoning service output")

// Confidence levels for assignment matches.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Synthesizer turns aggregated activity into a full profile. It never fails:
// any reasoning-service problem results in a deterministic fallback profile.
type Synthesizer interface {
	Synthesize(ctx context.Context, activity *profile.Activity) *profile.Profile
}

// SearchMatch is one free-text match. Fields carries the full profile
// enriched with the match fields, match fields winning on key collision.
type SearchMatch struct {
	Login          string         `json:"github_username"`
	RelevanceScore float64        `json:"relevance_score"`
	MatchReason    string         `json:"match_reason"`
	Fields         map[string]any `json:"-"`
}

// Assignment is one target recommendation for a persona.
type Assignment struct {
	TargetName    string `json:"target_name" mapstructure:"target_name"`
	Confidence    string `json:"confidence"`
	Justification string `json:"justification"`
}

// PersonaMatch is the assignment result for one persona. Error is set when
// the reasoning output for this persona alone was unusable; other personas
// are unaffected.
type PersonaMatch struct {
	Login          string        `json:"persona_id" mapstructure:"persona_id"`
	Name           string        `json:"persona_name" mapstructure:"persona_name"`
	Assignments    []*Assignment `json:"assignments"`
	OverallSummary string        `json:"overall_summary" mapstructure:"overall_summary"`
	Error          string        `json:"error,omitempty"`
}

// Matcher ranks stored profiles against a free-text query or a set of target
// specifications.
type Matcher interface {
	Search(ctx context.Context, query string, profiles []*profile.Profile) ([]*SearchMatch, error)
	Assign(ctx context.Context, profiles []*profile.Profile, targets []*profile.TargetSpec) ([]*PersonaMatch, error)
}
