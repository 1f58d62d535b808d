package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/profile"
	"go.uber.org/zap"
)

//go:embed search_prompt.md
var searchPromptTemplate string

//go:embed assign_prompt.md
var assignPromptTemplate string

// MaxSearchMatches bounds the free-text result set.
const MaxSearchMatches = 3

// Matcher ranks profiles with the reasoning service. Unlike the synthesizer
// it has no deterministic fallback: unusable output surfaces as an error.
type Matcher struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewMatcher(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Matcher{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Search returns up to MaxSearchMatches profiles relevant to the query. An
// empty profile set returns immediately without a service call. Identifiers
// the service invents are dropped; known ones are enriched with the full
// profile, match fields winning on collision.
func (m *Matcher) Search(ctx context.Context, query string, profiles []*profile.Profile) ([]*ai.SearchMatch, error) {
	if len(profiles) == 0 {
		return []*ai.SearchMatch{}, nil
	}

	profilesJSON, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profiles payload: %w", err)
	}

	prompt := strings.ReplaceAll(searchPromptTemplate, "{{MAX_MATCHES}}", fmt.Sprintf("%d", MaxSearchMatches))
	prompt = strings.ReplaceAll(prompt, "{{QUERY}}", strings.TrimSpace(query))
	prompt = strings.ReplaceAll(prompt, "{{PROFILES_JSON}}", string(profilesJSON))

	m.logger.Debug("gemini search request",
		zap.String("query", query),
		zap.Int("profiles", len(profiles)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("search matching: %w", err)
	}

	m.logger.Debug("gemini search response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, m.maxLogLen)),
	)

	var items []map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrUnparsable, err)
	}

	byLogin := make(map[string]*profile.Profile, len(profiles))
	for _, p := range profiles {
		byLogin[p.Login] = p
	}

	matches := make([]*ai.SearchMatch, 0, MaxSearchMatches)
	for _, item := range items {
		login := coerceString(item["github_username"])
		matched, ok := byLogin[login]
		if !ok {
			// The service named somebody we do not store.
			m.logger.Debug("dropping unknown login from search result", zap.String("login", login))
			continue
		}

		score := coerceFloat(item["relevance_score"])
		if math.IsNaN(score) {
			score = 0
		}

		fields := matched.AsMap()
		for key, value := range item {
			fields[key] = value
		}

		matches = append(matches, &ai.SearchMatch{
			Login:          login,
			RelevanceScore: score,
			MatchReason:    coerceString(item["match_reason"]),
			Fields:         fields,
		})

		if len(matches) == MaxSearchMatches {
			break
		}
	}

	return matches, nil
}

// Assign pairs every persona (stored profile) with its best-fit targets using
// one batched prompt. A decode failure for a single persona item is isolated
// into that persona's result; only a fully unparsable response is an error.
func (m *Matcher) Assign(ctx context.Context, profiles []*profile.Profile, targets []*profile.TargetSpec) ([]*ai.PersonaMatch, error) {
	if len(profiles) == 0 || len(targets) == 0 {
		return []*ai.PersonaMatch{}, nil
	}

	personasJSON, err := json.MarshalIndent(personaSummaries(profiles), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal personas payload: %w", err)
	}

	targetsJSON, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal targets payload: %w", err)
	}

	prompt := strings.ReplaceAll(assignPromptTemplate, "{{PERSONAS_JSON}}", string(personasJSON))
	prompt = strings.ReplaceAll(prompt, "{{TARGETS_JSON}}", string(targetsJSON))

	m.logger.Debug("gemini assignment request",
		zap.Int("personas", len(profiles)),
		zap.Int("targets", len(targets)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("assignment matching: %w", err)
	}

	m.logger.Debug("gemini assignment response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, m.maxLogLen)),
	)

	var items []map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrUnparsable, err)
	}

	byLogin := make(map[string]*profile.Profile, len(profiles))
	for _, p := range profiles {
		byLogin[p.Login] = p
	}

	matches := make([]*ai.PersonaMatch, 0, len(items))
	for _, item := range items {
		login := coerceString(item["persona_id"])
		known, ok := byLogin[login]
		if !ok {
			m.logger.Debug("dropping unknown persona from assignment result", zap.String("login", login))
			continue
		}

		match := &ai.PersonaMatch{Login: login, Name: known.Name}

		var decoded ai.PersonaMatch
		cfg := &mapstructure.DecoderConfig{
			Result:           &decoded,
			WeaklyTypedInput: true,
		}
		decoder, _ := mapstructure.NewDecoder(cfg)
		if err := decoder.Decode(item); err != nil {
			match.Error = fmt.Sprintf("unusable assignment for persona: %v", err)
			m.logger.Warn("assignment decode failed for persona",
				zap.String("login", login),
				zap.Error(err),
			)
			matches = append(matches, match)
			continue
		}

		match.OverallSummary = decoded.OverallSummary
		for _, a := range decoded.Assignments {
			a.Confidence = normalizeConfidence(a.Confidence)
			match.Assignments = append(match.Assignments, a)
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// personaSummaries keeps assignment prompts bounded: only the fields the
// pairing needs, not the whole stored document.
func personaSummaries(profiles []*profile.Profile) []map[string]any {
	summaries := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, map[string]any{
			"persona_id":      p.Login,
			"persona_name":    p.Name,
			"languages":       p.PrimaryLanguages,
			"expertise_areas": p.ExpertiseAreas,
			"frameworks":      p.Frameworks,
			"work_style":      p.WorkStyle,
			"summary":         p.Summary,
			"best_for":        p.BestFor,
		})
	}
	return summaries
}

func normalizeConfidence(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ai.ConfidenceHigh:
		return ai.ConfidenceHigh
	case ai.ConfidenceMedium:
		return ai.ConfidenceMedium
	default:
		return ai.ConfidenceLow
	}
}
