package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/profile"
	"go.uber.org/zap"
)

//go:embed synthesize_prompt.md
var synthesizePromptTemplate string

const (
	defaultMaxLogLength = 200
	primaryLanguages    = 3
)

// Synthesizer builds full profiles from aggregated activity. Every
// reasoning-service problem (transport, empty output, bad JSON, schema
// mismatch) degrades to the deterministic fallback profile; Synthesize never
// returns an error.
type Synthesizer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewSynthesizer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Synthesizer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Synthesizer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// synthesized mirrors the required output schema of the synthesis prompt.
type synthesized struct {
	ExpertiseAreas []string `mapstructure:"expertise_areas"`
	Frameworks     []string `mapstructure:"frameworks"`
	WorkStyle      string   `mapstructure:"work_style"`
	CommitPattern  string   `mapstructure:"commit_pattern"`
	Summary        string   `mapstructure:"ai_summary"`
	BestFor        []string `mapstructure:"best_for"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, activity *profile.Activity) *profile.Profile {
	result := FallbackProfile(activity)
	if s.generator == nil {
		return result
	}

	evidence := profile.SelectEvidence(activity)
	prompt := buildSynthesisPrompt(evidence)

	s.logger.Debug("gemini synthesis request",
		zap.String("login", activity.Login),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("synthesis degraded to fallback profile",
			zap.String("login", activity.Login),
			zap.Error(err),
		)
		return result
	}

	s.logger.Debug("gemini synthesis response",
		zap.String("login", activity.Login),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	fields, err := parseSynthesized(raw)
	if err != nil {
		s.logger.Warn("synthesis degraded to fallback profile",
			zap.String("login", activity.Login),
			zap.Error(err),
		)
		return result
	}

	result.ExpertiseAreas = fields.ExpertiseAreas
	result.Frameworks = fields.Frameworks
	result.WorkStyle = fields.WorkStyle
	result.CommitPattern = fields.CommitPattern
	result.Summary = fields.Summary
	result.BestFor = fields.BestFor
	result.Fallback = false

	return result
}

// FallbackProfile builds the minimal deterministic profile from aggregated
// activity alone: identity, counters, top tags and generic placeholder text
// for every synthesized field.
func FallbackProfile(activity *profile.Activity) *profile.Profile {
	return &profile.Profile{
		Login:            activity.Login,
		Name:             activity.Name,
		AvatarURL:        activity.AvatarURL,
		TotalCommits:     activity.EventCount(),
		PrimaryLanguages: activity.TopTags(primaryLanguages),
		RepoAnalyzed:     activity.Repo,
		ExpertiseAreas:   []string{"Code contribution"},
		WorkStyle:        "active contributor",
		CommitPattern:    fmt.Sprintf("Made %d commits", activity.EventCount()),
		Summary:          fmt.Sprintf("Active contributor to %s", activity.Repo),
		BestFor:          []string{"Code review", "Technical questions"},
		Fallback:         true,
	}
}

func buildSynthesisPrompt(ev *profile.Evidence) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Developer: %s\n", ev.Login)
	fmt.Fprintf(&b, "Repository: %s\n", ev.Repo)
	fmt.Fprintf(&b, "Total Commits: %d\n", ev.TotalCommits)
	fmt.Fprintf(&b, "Average Lines Added per Commit: %.0f\n", ev.AvgAdditions)
	fmt.Fprintf(&b, "Average Lines Deleted per Commit: %.0f\n", ev.AvgDeletions)

	tags := make([]string, 0, len(ev.TopTags))
	for _, tc := range ev.TopTags {
		tags = append(tags, fmt.Sprintf("%s (%d files)", tc.Tag, tc.Count))
	}
	fmt.Fprintf(&b, "Top Languages: %s\n", strings.Join(tags, ", "))

	b.WriteString("\nRecent Commit Messages:\n")
	for _, msg := range ev.Messages {
		fmt.Fprintf(&b, "- %s\n", msg)
	}

	b.WriteString("\nSample File Paths Modified:\n")
	for _, path := range ev.Paths {
		fmt.Fprintf(&b, "- %s\n", path)
	}

	return strings.ReplaceAll(synthesizePromptTemplate, "{{EVIDENCE}}", strings.TrimSpace(b.String()))
}

func parseSynthesized(raw string) (*synthesized, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse synthesis response: %w", err)
	}

	var fields synthesized
	cfg := &mapstructure.DecoderConfig{
		Result:           &fields,
		WeaklyTypedInput: true,
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode synthesis response: %w", err)
	}

	if err := validateSynthesized(&fields); err != nil {
		return nil, err
	}

	return &fields, nil
}

func validateSynthesized(fields *synthesized) error {
	if len(fields.ExpertiseAreas) == 0 {
		return fmt.Errorf("synthesis response misses expertise_areas")
	}
	if strings.TrimSpace(fields.WorkStyle) == "" {
		return fmt.Errorf("synthesis response misses work_style")
	}
	if strings.TrimSpace(fields.CommitPattern) == "" {
		return fmt.Errorf("synthesis response misses commit_pattern")
	}
	if strings.TrimSpace(fields.Summary) == "" {
		return fmt.Errorf("synthesis response misses ai_summary")
	}
	return nil
}
