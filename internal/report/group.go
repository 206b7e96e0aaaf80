// Package report correlates commits into pull-request groups and
// serializes them as JSON or CSV.
package report

import (
	"github.com/hochfrequenz/changetrack/internal/classify"
	"github.com/hochfrequenz/changetrack/internal/domain"
)

// GroupByPR correlates a resolved commit range into pull-request
// groups. Commits sharing a PR number join one group in encounter
// order; commits without a PR reference become sha-keyed singletons so
// direct pushes stay individually visible. Group order follows the
// first constituent commit of each group.
func GroupByPR(commits []domain.CommitRecord) []*domain.PullRequestGroup {
	var groups []*domain.PullRequestGroup
	byKey := make(map[string]*domain.PullRequestGroup)

	for _, c := range commits {
		number, title, ok := domain.ParsePRSuffix(c.Subject)

		var key string
		if ok {
			key = (&domain.PullRequestGroup{Number: number}).Key()
		} else {
			key = (&domain.PullRequestGroup{SHA: c.SHA}).Key()
		}

		if g, exists := byKey[key]; exists {
			g.Commits = append(g.Commits, c)
			continue
		}

		g := &domain.PullRequestGroup{
			Title:   c.Subject,
			Commits: []domain.CommitRecord{c},
		}
		if ok {
			g.Number = number
			g.Title = title
		} else {
			g.SHA = c.SHA
		}
		byKey[key] = g
		groups = append(groups, g)
	}
	return groups
}

// MarkScope sets each group's CompilerRelated flag: true if any commit
// in the group touches a file under any configured prefix. A single
// in-scope file is enough for a downstream maintainer to want
// visibility into the PR.
func MarkScope(groups []*domain.PullRequestGroup, prefixes []string) {
	for _, g := range groups {
		g.CompilerRelated = false
		for _, c := range g.Commits {
			if classify.InScope(c.Files, prefixes) {
				g.CompilerRelated = true
				break
			}
		}
	}
}

// CountParseWarnings returns how many resolved commits carried no PR
// reference. These are expected (direct pushes, plain merges) and are
// summarized once at the end of a run, never treated as errors.
func CountParseWarnings(commits []domain.CommitRecord) int {
	n := 0
	for _, c := range commits {
		if !c.HasPR() {
			n++
		}
	}
	return n
}
