package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// MinCommits is the minimum number of commits a contributor must have in a
// single aggregation run before a profile is synthesized for them. Merged
// totals may exceed it only through the merge engine.
const MinCommits = 2

// Profile is the persisted unit describing one contributor. The synthesized
// fields (expertise areas, frameworks, work style, commit pattern, summary,
// best-for) come from the reasoning service or from the deterministic
// fallback.
type Profile struct {
	Login            string   `json:"github_username" mapstructure:"github_username"`
	Name             string   `json:"name,omitempty"`
	AvatarURL        string   `json:"avatar_url,omitempty" mapstructure:"avatar_url"`
	TotalCommits     int      `json:"total_commits" mapstructure:"total_commits"`
	PrimaryLanguages []string `json:"primary_languages,omitempty" mapstructure:"primary_languages"`
	RepoAnalyzed     string   `json:"repo_analyzed,omitempty" mapstructure:"repo_analyzed"`

	ExpertiseAreas []string `json:"expertise_areas,omitempty" mapstructure:"expertise_areas"`
	Frameworks     []string `json:"frameworks,omitempty"`
	WorkStyle      string   `json:"work_style,omitempty" mapstructure:"work_style"`
	CommitPattern  string   `json:"commit_pattern,omitempty" mapstructure:"commit_pattern"`
	Summary        string   `json:"ai_summary,omitempty" mapstructure:"ai_summary"`
	BestFor        []string `json:"best_for,omitempty" mapstructure:"best_for"`

	// Fallback marks profiles whose synthesized fields are deterministic
	// placeholders because the reasoning service output was unusable.
	Fallback bool `json:"fallback,omitempty"`
}

type Profiles struct {
	Items []*Profile
}

func (p *Profiles) Len() int {
	return len(p.Items)
}

func (p *Profiles) FindByLogin(login string) *Profile {
	for _, profile := range p.Items {
		if profile.Login == login {
			return profile
		}
	}
	return nil
}

func (p *Profiles) Logins() []string {
	logins := make([]string, 0, len(p.Items))
	for _, profile := range p.Items {
		logins = append(logins, profile.Login)
	}
	return logins
}

func (p *Profiles) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "profiles_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Report summarizes profiles per contributor for the interactive loop.
func (p *Profiles) Report() map[string]map[string]string {
	report := make(map[string]map[string]string)
	for _, profile := range p.Items {
		key := fmt.Sprintf("%s (%s)", profile.Name, profile.Login)
		entry := map[string]string{
			"commits":    fmt.Sprintf("%d", profile.TotalCommits),
			"languages":  fmt.Sprintf("%v", profile.PrimaryLanguages),
			"work_style": profile.WorkStyle,
			"summary":    profile.Summary,
		}
		if profile.Fallback {
			entry["fallback"] = "true"
		}
		report[key] = entry
	}
	return report
}

// AsMap returns the profile as a generic map keyed by its JSON field names.
// Match results are layered on top of it when enriching search output.
func (p *Profile) AsMap() map[string]any {
	data, err := json.Marshal(p)
	if err != nil {
		return map[string]any{"github_username": p.Login}
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"github_username": p.Login}
	}
	return m
}
