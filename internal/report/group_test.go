package report

import (
	"testing"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

func commit(sha, subject string, files ...string) domain.CommitRecord {
	number, _, _ := domain.ParsePRSuffix(subject)
	return domain.CommitRecord{SHA: sha, Subject: subject, Files: files, PRNumber: number}
}

func TestGroupByPR_Basic(t *testing.T) {
	commits := []domain.CommitRecord{
		commit("aaaa", "Bump version (#100)", "README.md"),
		commit("bbbb", "Fix getfield_tfunc bug (#101)", "Compiler/src/tfuncs.jl"),
		commit("cccc", "typo", "docs/notes.md"),
	}

	groups := GroupByPR(commits)
	if len(groups) != 3 {
		t.Fatalf("group count = %d, want 3", len(groups))
	}

	if groups[0].Number != 100 || groups[0].Title != "Bump version" {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[1].Number != 101 || groups[1].Title != "Fix getfield_tfunc bug" {
		t.Errorf("groups[1] = %+v", groups[1])
	}
	if groups[2].Number != 0 || groups[2].SHA != "cccc" || groups[2].Title != "typo" {
		t.Errorf("groups[2] = %+v", groups[2])
	}
}

func TestGroupByPR_RepeatedNumberJoinsOneGroup(t *testing.T) {
	// Revert-and-reapply pair referencing the same PR. All evidence is
	// retained for the human reviewer, in encounter order.
	commits := []domain.CommitRecord{
		commit("aaaa", "Add inlining heuristic (#200)", "Compiler/src/inlining.jl"),
		commit("bbbb", "Unrelated (#201)", "docs/a.md"),
		commit("cccc", "Reapply inlining heuristic (#200)", "Compiler/src/inlining.jl"),
	}

	groups := GroupByPR(commits)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if len(groups[0].Commits) != 2 {
		t.Errorf("groups[0] commit count = %d, want 2", len(groups[0].Commits))
	}
	if groups[0].Commits[0].SHA != "aaaa" || groups[0].Commits[1].SHA != "cccc" {
		t.Errorf("groups[0] commits out of encounter order: %v", groups[0].Commits)
	}
	// Title comes from the first constituent commit.
	if groups[0].Title != "Add inlining heuristic" {
		t.Errorf("groups[0].Title = %q", groups[0].Title)
	}
}

func TestGroupByPR_SingletonsNeverMerge(t *testing.T) {
	commits := []domain.CommitRecord{
		commit("aaaa", "typo"),
		commit("bbbb", "typo"),
	}
	groups := GroupByPR(commits)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2: identical subjects without PR numbers must not merge", len(groups))
	}
}

func TestGroupByPR_StableAcrossRanges(t *testing.T) {
	rangeA := []domain.CommitRecord{
		commit("aaaa", "one (#1)"),
		commit("bbbb", "two (#2)"),
	}
	rangeB := []domain.CommitRecord{
		commit("cccc", "three (#3)"),
		commit("dddd", "four"),
	}

	combined := GroupByPR(append(append([]domain.CommitRecord{}, rangeA...), rangeB...))
	separate := append(GroupByPR(rangeA), GroupByPR(rangeB)...)

	if len(combined) != len(separate) {
		t.Fatalf("combined count = %d, separate count = %d", len(combined), len(separate))
	}
	for i := range combined {
		if combined[i].Key() != separate[i].Key() {
			t.Errorf("group %d key = %q, want %q", i, combined[i].Key(), separate[i].Key())
		}
	}
}

func TestGroupByPR_Idempotent(t *testing.T) {
	commits := []domain.CommitRecord{
		commit("aaaa", "one (#1)"),
		commit("bbbb", "two"),
		commit("cccc", "one again (#1)"),
	}
	first := GroupByPR(commits)
	second := GroupByPR(commits)
	if len(first) != len(second) {
		t.Fatalf("group counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key() != second[i].Key() {
			t.Errorf("group %d key differs across runs", i)
		}
		if len(first[i].Commits) != len(second[i].Commits) {
			t.Errorf("group %d membership differs across runs", i)
		}
	}
}

func TestMarkScope_UnionSemantics(t *testing.T) {
	groups := []*domain.PullRequestGroup{
		{
			Number: 300,
			Commits: []domain.CommitRecord{
				{SHA: "aaaa", Files: []string{"docs/foo.md"}},
				{SHA: "bbbb", Files: []string{"Compiler/src/bar.jl"}},
			},
		},
		{
			Number: 301,
			Commits: []domain.CommitRecord{
				{SHA: "cccc", Files: []string{"docs/only.md"}},
			},
		},
	}

	MarkScope(groups, []string{"Compiler/"})
	if !groups[0].CompilerRelated {
		t.Error("group touching one in-scope file not marked compiler-related")
	}
	if groups[1].CompilerRelated {
		t.Error("docs-only group marked compiler-related")
	}

	// Re-marking with different prefixes recomputes from scratch.
	MarkScope(groups, []string{"docs/"})
	if !groups[1].CompilerRelated {
		t.Error("scope not recomputed for new prefixes")
	}
}

func TestCountParseWarnings(t *testing.T) {
	commits := []domain.CommitRecord{
		commit("aaaa", "one (#1)"),
		commit("bbbb", "direct push"),
		commit("cccc", "another direct push"),
	}
	if got := CountParseWarnings(commits); got != 2 {
		t.Errorf("CountParseWarnings = %d, want 2", got)
	}
}
