package github

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const defaultCommitLimit = 100

// RepoRef identifies a repository on GitHub.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// ParseRepoRef extracts owner/repo from a GitHub URL or a bare owner/repo
// string.
func ParseRepoRef(raw string) (RepoRef, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if raw == "" {
		return RepoRef{}, fmt.Errorf("repository reference is empty")
	}

	if strings.HasPrefix(raw, "http") {
		_, after, found := strings.Cut(raw, "github.com/")
		if !found {
			return RepoRef{}, fmt.Errorf("not a github url: %s", raw)
		}
		raw = after
	}

	parts := strings.Split(raw, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("expected owner/repo, got %q", raw)
	}

	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}

// Commit is a single raw activity record. Files may be empty when the detail
// request for the commit was unavailable.
type Commit struct {
	SHA       string
	Login     string
	Name      string
	AvatarURL string
	Message   string
	Date      string
	Additions int
	Deletions int
	Files     []string
}

// commitItem mirrors the GitHub REST listing payload.
type commitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"author"`
}

// commitDetail mirrors the single-commit payload carrying stats and files.
type commitDetail struct {
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
	Files []struct {
		Filename string `json:"filename"`
	} `json:"files"`
}

// ListRecentCommits returns up to limit recent commits for the repository,
// newest first. Stats and touched files come from per-commit detail requests;
// a failed detail request degrades that single commit to empty files and zero
// counters instead of failing the listing.
func (c *Client) ListRecentCommits(ref RepoRef, limit int) ([]*Commit, error) {
	if limit <= 0 {
		limit = defaultCommitLimit
	}

	listURL := fmt.Sprintf("%s/repos/%s/%s/commits", c.APIURL, ref.Owner, ref.Name)

	items, err := c.GetItems(listURL, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list commits for %s: %w", ref.FullName(), err)
	}

	var listed []*commitItem
	cfg := &mapstructure.DecoderConfig{
		Result:  &listed,
		TagName: "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode commits for %s: %w", ref.FullName(), err)
	}

	commits := make([]*Commit, 0, len(listed))
	for _, item := range listed {
		commit := &Commit{
			SHA:       item.SHA,
			Login:     item.Author.Login,
			Name:      item.Commit.Author.Name,
			AvatarURL: item.Author.AvatarURL,
			Message:   item.Commit.Message,
			Date:      item.Commit.Author.Date,
		}

		detail, err := c.getCommitDetail(ref, item.SHA)
		if err != nil {
			// Some commits may not have file details. Counters stay zero.
			c.logger.Debug("fetching commit detail failed",
				zap.String("sha", item.SHA),
				zap.Error(err),
			)
		} else {
			commit.Additions = detail.Stats.Additions
			commit.Deletions = detail.Stats.Deletions
			for _, f := range detail.Files {
				commit.Files = append(commit.Files, f.Filename)
			}
		}

		commits = append(commits, commit)
	}

	return commits, nil
}

func (c *Client) getCommitDetail(ref RepoRef, sha string) (*commitDetail, error) {
	if sha == "" {
		return nil, fmt.Errorf("commit sha is required")
	}

	detailURL := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.APIURL, ref.Owner, ref.Name, sha)

	var raw map[string]any
	if err := c.getJSON(detailURL, nil, &raw); err != nil {
		return nil, err
	}

	var detail commitDetail
	cfg := &mapstructure.DecoderConfig{
		Result:  &detail,
		TagName: "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	return &detail, nil
}
