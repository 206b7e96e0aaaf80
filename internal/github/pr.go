package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

type apiUser struct {
	Login string `json:"login"`
}

type apiPullRequest struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	MergedAt  string  `json:"merged_at"`
	UpdatedAt string  `json:"updated_at"`
	User      apiUser `json:"user"`
}

func (p apiPullRequest) toDomain() domain.PullRequest {
	return domain.PullRequest{
		Number:    p.Number,
		Title:     p.Title,
		Author:    p.User.Login,
		MergedAt:  p.MergedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type prFile struct {
	Filename string `json:"filename"`
}

// PullRequest fetches the metadata for one PR.
func (c *Client) PullRequest(ctx context.Context, number int) (domain.PullRequest, error) {
	var pr apiPullRequest
	err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d", c.Repo, number), nil, &pr)
	if err != nil {
		return domain.PullRequest{}, err
	}
	return pr.toDomain(), nil
}

// PullRequestFiles fetches the changed-file paths of one PR,
// paginating until a short page.
func (c *Client) PullRequestFiles(ctx context.Context, number int) ([]string, error) {
	endpoint := fmt.Sprintf("/repos/%s/pulls/%d/files", c.Repo, number)
	var files []string
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))

		var batch []prFile
		if err := c.get(ctx, endpoint, params, &batch); err != nil {
			return nil, err
		}
		for _, f := range batch {
			files = append(files, f.Filename)
		}
		if len(batch) < perPage {
			break
		}
	}
	return files, nil
}

// tagRef and tagObject model the two-step ref resolution for annotated
// tags: the ref points at a tag object which points at the commit.
type tagRef struct {
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

type commitInfo struct {
	Committer struct {
		Date string `json:"date"`
	} `json:"committer"`
}

// TagDate resolves a tag to its commit date.
func (c *Client) TagDate(ctx context.Context, tag string) (time.Time, error) {
	var ref tagRef
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/git/ref/tags/%s", c.Repo, tag), nil, &ref); err != nil {
		return time.Time{}, fmt.Errorf("resolving tag %s: %w", tag, err)
	}

	commitSHA := ref.Object.SHA
	if ref.Object.Type == "tag" {
		var obj tagRef
		if err := c.get(ctx, fmt.Sprintf("/repos/%s/git/tags/%s", c.Repo, ref.Object.SHA), nil, &obj); err != nil {
			return time.Time{}, fmt.Errorf("resolving annotated tag %s: %w", tag, err)
		}
		commitSHA = obj.Object.SHA
	}

	var commit commitInfo
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/git/commits/%s", c.Repo, commitSHA), nil, &commit); err != nil {
		return time.Time{}, fmt.Errorf("fetching commit for tag %s: %w", tag, err)
	}
	return time.Parse(time.RFC3339, commit.Committer.Date)
}

type searchResponse struct {
	Items []apiPullRequest `json:"items"`
}

// SearchMergedPRs lists PRs merged inside [start, end], newest pages
// first, capped at limit.
func (c *Client) SearchMergedPRs(ctx context.Context, start, end time.Time, limit int) ([]domain.PullRequest, error) {
	query := fmt.Sprintf("repo:%s is:pr is:merged merged:%s..%s",
		c.Repo, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var prs []domain.PullRequest
	pages := (limit + perPage - 1) / perPage
	for page := 1; page <= pages; page++ {
		params := url.Values{}
		params.Set("q", query)
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))

		var resp searchResponse
		if err := c.get(ctx, "/search/issues", params, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			prs = append(prs, item.toDomain())
		}
		if len(resp.Items) < perPage || len(prs) >= limit {
			break
		}
	}
	if len(prs) > limit {
		prs = prs[:limit]
	}
	return prs, nil
}

// PRsBetweenTags lists PRs merged between two tags, using the tag
// commit dates as the search window.
func (c *Client) PRsBetweenTags(ctx context.Context, startTag, endTag string, limit int) ([]domain.PullRequest, error) {
	start, err := c.TagDate(ctx, startTag)
	if err != nil {
		return nil, err
	}
	end, err := c.TagDate(ctx, endTag)
	if err != nil {
		return nil, err
	}
	return c.SearchMergedPRs(ctx, start, end, limit)
}

// FetchFiles fills in the Files field for each PR, fanning out at most
// concurrency requests at a time. The first failure aborts the group.
func (c *Client) FetchFiles(ctx context.Context, prs []domain.PullRequest, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range prs {
		g.Go(func() error {
			files, err := c.PullRequestFiles(ctx, prs[i].Number)
			if err != nil {
				return fmt.Errorf("files for PR #%d: %w", prs[i].Number, err)
			}
			prs[i].Files = files
			return nil
		})
	}
	return g.Wait()
}
