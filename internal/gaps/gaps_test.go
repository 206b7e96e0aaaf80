package gaps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

func group(number int, title string, files ...string) *domain.PullRequestGroup {
	return &domain.PullRequestGroup{
		Number:          number,
		Title:           title,
		CompilerRelated: true,
		Commits:         []domain.CommitRecord{{Files: files}},
	}
}

func writeAnalyses(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("analysis\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

var testRules = []domain.CategoryRule{
	{Prefix: "Compiler/src/ssair/", Category: "Optimizer"},
	{Prefix: "Compiler/src/", Category: "Inference"},
	{Prefix: "src/", Category: "Codegen"},
}

func TestScanAnalyses(t *testing.T) {
	dir := writeAnalyses(t, "pr_101.md", "pr_202.yaml", "pr_notes.md", "readme.md", "pr_303.analysis.md")
	covered, err := ScanAnalyses(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []int{101, 202, 303} {
		if !covered[want] {
			t.Errorf("PR %d not detected as covered", want)
		}
	}
	if len(covered) != 3 {
		t.Errorf("covered count = %d, want 3 (got %v)", len(covered), covered)
	}
}

func TestFindMissing_Completeness(t *testing.T) {
	groups := []*domain.PullRequestGroup{
		group(101, "ssair pass fix", "Compiler/src/ssair/passes.jl"),
		group(102, "tfunc fix", "Compiler/src/tfuncs.jl"),
		group(103, "codegen fix", "src/codegen.cpp"),
		group(104, "docs cleanup", "doc/src/devdocs/inference.md"),
		group(105, "already analyzed", "Compiler/src/tfuncs.jl"),
	}
	dir := writeAnalyses(t, "pr_105.md")

	rep, err := FindMissing(groups, dir, testRules)
	if err != nil {
		t.Fatal(err)
	}

	// N=5 groups, M=1 covered: exactly N-M=4 missing entries, each in
	// precisely one category, no duplicates and no omissions.
	if rep.Missing() != 4 {
		t.Fatalf("missing = %d, want 4", rep.Missing())
	}
	if rep.Covered != 1 {
		t.Errorf("covered = %d, want 1", rep.Covered)
	}

	seen := make(map[int]int)
	for _, cat := range rep.Categories {
		for _, e := range cat.Entries {
			seen[e.Number]++
		}
	}
	for _, want := range []int{101, 102, 103, 104} {
		if seen[want] != 1 {
			t.Errorf("PR %d appears %d times, want exactly once", want, seen[want])
		}
	}
	if seen[105] != 0 {
		t.Error("covered PR 105 reported as missing")
	}
}

func TestFindMissing_FirstMatchWinsAndOrder(t *testing.T) {
	groups := []*domain.PullRequestGroup{
		// Touches both an ssair file and a broader Compiler/src file:
		// the more specific rule is listed first, so it wins.
		group(201, "ssair and tfuncs", "Compiler/src/ssair/inlining.jl", "Compiler/src/tfuncs.jl"),
		group(202, "inference only", "Compiler/src/abstractinterpretation.jl"),
		group(203, "uncategorized", "base/boot.jl"),
	}
	dir := writeAnalyses(t)

	rep, err := FindMissing(groups, dir, testRules)
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"Optimizer", "Inference", "Other"}
	if len(rep.Categories) != len(wantOrder) {
		t.Fatalf("categories = %v", rep.Categories)
	}
	for i, want := range wantOrder {
		if rep.Categories[i].Name != want {
			t.Errorf("category[%d] = %q, want %q", i, rep.Categories[i].Name, want)
		}
	}
	if rep.Categories[0].Entries[0].Number != 201 {
		t.Errorf("Optimizer entry = %+v, want PR 201", rep.Categories[0].Entries[0])
	}
}

func TestFindMissing_SkipsSingletons(t *testing.T) {
	groups := []*domain.PullRequestGroup{
		{SHA: "deadbeef", Title: "direct push", Commits: []domain.CommitRecord{{Files: []string{"src/gc.c"}}}},
		group(301, "real PR", "src/gc.c"),
	}
	dir := writeAnalyses(t)

	rep, err := FindMissing(groups, dir, testRules)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Missing() != 1 {
		t.Fatalf("missing = %d, want 1 (singletons have no analysis naming convention)", rep.Missing())
	}
}

func TestFindMissing_MissingDir(t *testing.T) {
	if _, err := FindMissing(nil, filepath.Join(t.TempDir(), "absent"), testRules); err == nil {
		t.Error("FindMissing accepted a nonexistent analyses directory")
	}
}

func TestRenderMarkdown(t *testing.T) {
	rep := &Report{
		Covered: 2,
		Categories: []CategoryGroup{
			{Name: "Inference", Entries: []Entry{{Number: 58123, Title: "Fix off-by-one in alloc-opt"}}},
			{Name: "Other", Entries: []Entry{{Number: 58200, Title: "weird | title"}}},
		},
	}

	out := RenderMarkdown(rep, "JuliaLang/julia")
	if !strings.Contains(out, "## Inference") {
		t.Error("missing Inference section")
	}
	if !strings.Contains(out, "[#58123](https://github.com/JuliaLang/julia/pull/58123)") {
		t.Error("missing PR link")
	}
	if !strings.Contains(out, `weird \| title`) {
		t.Error("pipe in title not escaped")
	}
	if strings.Index(out, "## Inference") > strings.Index(out, "## Other") {
		t.Error("category order not preserved")
	}

	again := RenderMarkdown(rep, "JuliaLang/julia")
	if out != again {
		t.Error("render not stable across runs")
	}
}
