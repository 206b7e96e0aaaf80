package domain

import "fmt"

// PullRequestGroup is the unit of reporting: one or more commits
// correlated to a single pull request, or a lone direct-push commit.
type PullRequestGroup struct {
	Number          int    // 0 for direct-push singletons
	SHA             string // set only for direct-push singletons
	Title           string
	Commits         []CommitRecord
	CompilerRelated bool
}

// Key returns the identifier groups are correlated under. Numbered
// groups share a key per PR; direct-push commits get a sha-based key so
// they are never merged with each other.
func (g *PullRequestGroup) Key() string {
	if g.Number > 0 {
		return fmt.Sprintf("#%d", g.Number)
	}
	return "sha:" + g.SHA
}

// Files returns the deduplicated union of paths touched by the group's
// commits, in first-seen order.
func (g *PullRequestGroup) Files() []string {
	seen := make(map[string]struct{})
	var files []string
	for _, c := range g.Commits {
		for _, f := range c.Files {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}
	return files
}

// CategoryRule maps a path prefix to a category name. Rules are
// evaluated in order; the first match wins.
type CategoryRule struct {
	Prefix   string `yaml:"prefix"`
	Category string `yaml:"category"`
}

// OtherCategory is assigned when no rule matches a group's files.
const OtherCategory = "Other"
