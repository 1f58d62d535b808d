package profile

import (
	"sort"
	"strings"

	"github.com/spigell/devscout/internal/github"
)

// TagRule maps a path suffix to a tag. Rules are evaluated in order and the
// first match wins; the order of DefaultTagRules is part of the contract.
type TagRule struct {
	Suffix string
	Tag    string
}

var DefaultTagRules = []TagRule{
	{".py", "Python"},
	{".js", "JavaScript"},
	{".ts", "TypeScript"},
	{".jsx", "React"},
	{".tsx", "React"},
	{".java", "Java"},
	{".go", "Go"},
	{".rs", "Rust"},
	{".cpp", "C++"},
	{".c", "C"},
	{".rb", "Ruby"},
	{".php", "PHP"},
	{".swift", "Swift"},
	{".kt", "Kotlin"},
	{".scala", "Scala"},
	{".sql", "SQL"},
	{".sh", "Shell"},
	{".yml", "YAML"},
	{".yaml", "YAML"},
	{".json", "JSON"},
	{".md", "Markdown"},
}

// DetectTag returns the tag for the first rule matching the path, or false
// when no rule matches.
func DetectTag(rules []TagRule, path string) (string, bool) {
	for _, rule := range rules {
		if strings.HasSuffix(path, rule.Suffix) {
			return rule.Tag, true
		}
	}
	return "", false
}

// Activity accumulates raw commit records for one contributor during a single
// aggregation run. It is built once per run and read-only afterwards.
type Activity struct {
	Login     string
	Name      string
	AvatarURL string
	Repo      string

	// Commits keeps source order, which is newest-first for GitHub listings.
	Commits []*github.Commit
	// Tags counts detected tags; TagOrder records first-seen order for
	// deterministic tie-breaking.
	Tags     map[string]int
	TagOrder []string
	// Paths keeps every touched path in source order, duplicates included.
	Paths []string
}

func (a *Activity) EventCount() int {
	return len(a.Commits)
}

func (a *Activity) MeanAdditions() float64 {
	if len(a.Commits) == 0 {
		return 0
	}
	total := 0
	for _, c := range a.Commits {
		total += c.Additions
	}
	return float64(total) / float64(len(a.Commits))
}

func (a *Activity) MeanDeletions() float64 {
	if len(a.Commits) == 0 {
		return 0
	}
	total := 0
	for _, c := range a.Commits {
		total += c.Deletions
	}
	return float64(total) / float64(len(a.Commits))
}

// TopTags returns up to k tags ordered by descending count, ties broken by
// first-seen order.
func (a *Activity) TopTags(k int) []string {
	tags := make([]string, len(a.TagOrder))
	copy(tags, a.TagOrder)

	order := make(map[string]int, len(a.TagOrder))
	for i, tag := range a.TagOrder {
		order[tag] = i
	}

	sort.SliceStable(tags, func(i, j int) bool {
		if a.Tags[tags[i]] != a.Tags[tags[j]] {
			return a.Tags[tags[i]] > a.Tags[tags[j]]
		}
		return order[tags[i]] < order[tags[j]]
	})

	if k > 0 && len(tags) > k {
		tags = tags[:k]
	}
	return tags
}

// Aggregate groups commits by contributor login. Commits without a resolvable
// login are dropped silently. Missing file lists degrade to empty path lists
// for that commit; size counters are accumulated regardless.
func Aggregate(repo string, commits []*github.Commit, rules []TagRule) map[string]*Activity {
	byLogin := make(map[string]*Activity)

	for _, commit := range commits {
		if commit == nil || commit.Login == "" {
			continue
		}

		activity, ok := byLogin[commit.Login]
		if !ok {
			name := commit.Name
			if name == "" {
				name = commit.Login
			}
			activity = &Activity{
				Login:     commit.Login,
				Name:      name,
				AvatarURL: commit.AvatarURL,
				Repo:      repo,
				Tags:      make(map[string]int),
			}
			byLogin[commit.Login] = activity
		}

		activity.Commits = append(activity.Commits, commit)

		for _, path := range commit.Files {
			activity.Paths = append(activity.Paths, path)
			tag, ok := DetectTag(rules, path)
			if !ok {
				continue
			}
			if _, seen := activity.Tags[tag]; !seen {
				activity.TagOrder = append(activity.TagOrder, tag)
			}
			activity.Tags[tag]++
		}
	}

	return byLogin
}
