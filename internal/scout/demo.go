package scout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/profile"
)

// Demo-mode scoring weights for keyword search.
const (
	expertiseWeight = 30
	frameworkWeight = 25
	languageWeight  = 20
	bestForWeight   = 15
	maxScore        = 100
)

// keywordSearch is the demo-mode stand-in for semantic search: plain keyword
// overlap between the query and profile fields. It is a mode, not a fallback;
// with a real reasoning service configured, parse failures still error out.
func keywordSearch(query string, profiles []*profile.Profile) []*ai.SearchMatch {
	words := strings.Fields(strings.ToLower(query))

	matches := make([]*ai.SearchMatch, 0, len(profiles))
	for _, p := range profiles {
		score := 0
		var reasons []string

		for _, expertise := range p.ExpertiseAreas {
			if containsAny(strings.ToLower(expertise), words, 0) {
				score += expertiseWeight
				reasons = append(reasons, fmt.Sprintf("expertise in %s", expertise))
			}
		}

		for _, lang := range p.PrimaryLanguages {
			if strings.Contains(strings.ToLower(query), strings.ToLower(lang)) {
				score += languageWeight
				reasons = append(reasons, fmt.Sprintf("works with %s", lang))
			}
		}

		for _, framework := range p.Frameworks {
			if strings.Contains(strings.ToLower(query), strings.ToLower(framework)) {
				score += frameworkWeight
				reasons = append(reasons, fmt.Sprintf("uses %s", framework))
			}
		}

		for _, item := range p.BestFor {
			if containsAny(strings.ToLower(item), words, 3) {
				score += bestForWeight
				reasons = append(reasons, fmt.Sprintf("good at %s", strings.ToLower(item)))
			}
		}

		if score == 0 {
			continue
		}
		if score > maxScore {
			score = maxScore
		}

		if len(reasons) > 3 {
			reasons = reasons[:3]
		}

		fields := p.AsMap()
		reason := "Strong match: " + strings.Join(reasons, ", ")
		fields["relevance_score"] = score
		fields["match_reason"] = reason

		matches = append(matches, &ai.SearchMatch{
			Login:          p.Login,
			RelevanceScore: float64(score),
			MatchReason:    reason,
			Fields:         fields,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})

	if len(matches) > 3 {
		matches = matches[:3]
	}
	return matches
}

// containsAny reports whether any query word longer than minLen appears in s.
func containsAny(s string, words []string, minLen int) bool {
	for _, word := range words {
		if len(word) <= minLen {
			continue
		}
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

// Rule-based assignment thresholds.
const (
	highThreshold   = 6
	mediumThreshold = 3
)

// ruleBasedAssign is the demo-mode assignment matcher: overlap scoring of
// profile fields against a lowercase blob of each target spec.
func ruleBasedAssign(profiles []*profile.Profile, targets []*profile.TargetSpec) []*ai.PersonaMatch {
	blobs := make(map[string]string, len(targets))
	for _, t := range targets {
		blobs[t.Name] = targetBlob(t)
	}

	results := make([]*ai.PersonaMatch, 0, len(profiles))
	for _, p := range profiles {
		type scored struct {
			target    *profile.TargetSpec
			score     int
			expertise []string
			languages []string
		}

		scoredTargets := make([]scored, 0, len(targets))
		for _, t := range targets {
			blob := blobs[t.Name]

			var expertiseOverlap, languageOverlap []string
			for _, e := range p.ExpertiseAreas {
				if strings.Contains(blob, strings.ToLower(e)) {
					expertiseOverlap = append(expertiseOverlap, e)
				}
			}
			for _, l := range p.PrimaryLanguages {
				if strings.Contains(blob, strings.ToLower(l)) {
					languageOverlap = append(languageOverlap, l)
				}
			}

			frameworkOverlap := 0
			for _, f := range p.Frameworks {
				if strings.Contains(blob, strings.ToLower(f)) {
					frameworkOverlap++
				}
			}

			score := len(expertiseOverlap)*2 + len(languageOverlap) + frameworkOverlap
			scoredTargets = append(scoredTargets, scored{
				target:    t,
				score:     score,
				expertise: expertiseOverlap,
				languages: languageOverlap,
			})
		}

		sort.SliceStable(scoredTargets, func(i, j int) bool {
			return scoredTargets[i].score > scoredTargets[j].score
		})
		if len(scoredTargets) > 3 {
			scoredTargets = scoredTargets[:3]
		}

		match := &ai.PersonaMatch{
			Login:          p.Login,
			Name:           p.Name,
			OverallSummary: "Rule-based recommendation generated because the reasoning service was unavailable.",
		}

		for _, st := range scoredTargets {
			var bits []string
			if len(st.expertise) > 0 {
				bits = append(bits, fmt.Sprintf("expertise match: %s", strings.Join(st.expertise, ", ")))
			}
			if len(st.languages) > 0 {
				bits = append(bits, fmt.Sprintf("language experience in %s", strings.Join(st.languages, ", ")))
			}
			if len(bits) == 0 {
				bits = append(bits, "relevant interests based on general experience")
			}

			confidence := ai.ConfidenceLow
			switch {
			case st.score >= highThreshold:
				confidence = ai.ConfidenceHigh
			case st.score >= mediumThreshold:
				confidence = ai.ConfidenceMedium
			}

			match.Assignments = append(match.Assignments, &ai.Assignment{
				TargetName:    st.target.Name,
				Confidence:    confidence,
				Justification: fmt.Sprintf("Rule-based match (%s).", strings.Join(bits, "; ")),
			})
		}

		results = append(results, match)
	}

	return results
}

func targetBlob(t *profile.TargetSpec) string {
	sections := []string{t.Name, t.Description, strings.Join(t.RequiredTags, " ")}
	return strings.ToLower(strings.Join(sections, " "))
}
