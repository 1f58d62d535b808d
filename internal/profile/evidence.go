package profile

import "strings"

const (
	EvidenceTopTags    = 5
	EvidenceMaxPaths   = 20
	EvidenceMaxMsgs    = 20
	EvidenceMaxMsgLen  = 100
)

// TagCount is one entry of the bounded tag ranking.
type TagCount struct {
	Tag   string
	Count int
}

// Evidence is the bounded, deterministic projection of an Activity used to
// build a synthesis prompt. Identical activities always produce identical
// evidence.
type Evidence struct {
	Login        string
	Name         string
	Repo         string
	TotalCommits int
	AvgAdditions float64
	AvgDeletions float64
	TopTags      []TagCount
	Paths        []string
	Messages     []string
}

// SelectEvidence truncates an Activity into an Evidence bundle: top tags by
// count (ties by first-seen order), deduplicated paths capped preserving
// first-seen order, and first-line message excerpts for the most recent
// commits in ingestion order.
func SelectEvidence(a *Activity) *Evidence {
	ev := &Evidence{
		Login:        a.Login,
		Name:         a.Name,
		Repo:         a.Repo,
		TotalCommits: a.EventCount(),
		AvgAdditions: a.MeanAdditions(),
		AvgDeletions: a.MeanDeletions(),
	}

	for _, tag := range a.TopTags(EvidenceTopTags) {
		ev.TopTags = append(ev.TopTags, TagCount{Tag: tag, Count: a.Tags[tag]})
	}

	seen := make(map[string]struct{}, len(a.Paths))
	for _, path := range a.Paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		ev.Paths = append(ev.Paths, path)
		if len(ev.Paths) == EvidenceMaxPaths {
			break
		}
	}

	for _, commit := range a.Commits {
		ev.Messages = append(ev.Messages, excerpt(commit.Message))
		if len(ev.Messages) == EvidenceMaxMsgs {
			break
		}
	}

	return ev
}

// excerpt keeps the first line of a message truncated to the evidence cap.
func excerpt(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	runes := []rune(line)
	if len(runes) > EvidenceMaxMsgLen {
		line = string(runes[:EvidenceMaxMsgLen])
	}
	return line
}
