// Package gaps cross-references compiler PR groups against the
// directory of hand-written analysis files and reports what is missing.
package gaps

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/hochfrequenz/changetrack/internal/classify"
	"github.com/hochfrequenz/changetrack/internal/domain"
)

// analysisFilePattern matches analysis artifacts by naming convention,
// extension-agnostic: pr_58123.md, pr_58123.yaml, ...
var analysisFilePattern = regexp.MustCompile(`^pr_(\d+)\.[^.]`)

// Entry is one PR lacking an analysis file.
type Entry struct {
	Number int
	Title  string
}

// CategoryGroup holds the missing entries for one category, in the
// original group order.
type CategoryGroup struct {
	Name    string
	Entries []Entry
}

// Report is the gap tracker's output: categories in rule order (with
// Other last), each holding its missing PRs.
type Report struct {
	Categories []CategoryGroup
	Covered    int // compiler PRs that already have an analysis file
}

// Missing returns the total number of missing entries across all
// categories.
func (r *Report) Missing() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Entries)
	}
	return n
}

// ScanAnalyses reads analysesDir once and returns the set of PR numbers
// that have an analysis file.
func ScanAnalyses(analysesDir string) (map[int]bool, error) {
	entries, err := os.ReadDir(analysesDir)
	if err != nil {
		return nil, fmt.Errorf("scanning analyses directory: %w", err)
	}
	covered := make(map[int]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := analysisFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		covered[number] = true
	}
	return covered, nil
}

// FindMissing reports which compiler-related groups lack an analysis
// file, categorized by the ordered rules (first match wins, Other as
// fallback). Direct-push singletons have no PR number to name an
// analysis file after, so only numbered groups are considered.
func FindMissing(groups []*domain.PullRequestGroup, analysesDir string, rules []domain.CategoryRule) (*Report, error) {
	covered, err := ScanAnalyses(analysesDir)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]Entry)
	rep := &Report{}
	for _, g := range groups {
		if g.Number <= 0 {
			continue
		}
		if covered[g.Number] {
			rep.Covered++
			continue
		}
		category := classify.Category(g.Files(), rules, domain.OtherCategory)
		byCategory[category] = append(byCategory[category], Entry{Number: g.Number, Title: g.Title})
	}

	for _, r := range rules {
		entries, ok := byCategory[r.Category]
		if !ok {
			continue
		}
		rep.Categories = append(rep.Categories, CategoryGroup{Name: r.Category, Entries: entries})
		delete(byCategory, r.Category)
	}
	if entries, ok := byCategory[domain.OtherCategory]; ok {
		rep.Categories = append(rep.Categories, CategoryGroup{Name: domain.OtherCategory, Entries: entries})
	}
	return rep, nil
}
