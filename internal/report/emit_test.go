package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

func sampleGroups() []*domain.PullRequestGroup {
	groups := GroupByPR([]domain.CommitRecord{
		commit("aaaa", "Bump version (#100)", "README.md"),
		commit("bbbb", "Fix getfield_tfunc bug (#101)", "Compiler/src/tfuncs.jl", "test/tfuncs.jl"),
		commit("cccc", "typo", "docs/notes.md"),
	})
	MarkScope(groups, []string{"Compiler/"})
	return groups
}

func TestEmit_JSONKeyOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := Emit(&buf, sampleGroups(), FormatJSON, ScopeAll); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	// Stable key order within each object: number before title before
	// is_compiler_related before files_changed.
	numberAt := strings.Index(out, `"number"`)
	titleAt := strings.Index(out, `"title"`)
	relatedAt := strings.Index(out, `"is_compiler_related"`)
	filesAt := strings.Index(out, `"files_changed"`)
	if !(numberAt < titleAt && titleAt < relatedAt && relatedAt < filesAt) {
		t.Errorf("unexpected key order in output:\n%s", out)
	}
	if strings.Contains(out, `"number": "101"`) {
		t.Error("PR number emitted as string")
	}
	if !strings.Contains(out, `"number": 101`) {
		t.Error("PR number 101 missing as integer")
	}
	// The no-PR singleton carries a null number and its sha.
	if !strings.Contains(out, `"number": null`) {
		t.Error("singleton group missing null number")
	}
	if !strings.Contains(out, `"sha": "cccc"`) {
		t.Error("singleton group missing sha")
	}
}

func TestEmit_ScopeFilter(t *testing.T) {
	var buf bytes.Buffer
	if err := Emit(&buf, sampleGroups(), FormatJSON, ScopeCompilerOnly); err != nil {
		t.Fatal(err)
	}

	var records []Record
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	if records[0].Number == nil || *records[0].Number != 101 {
		t.Errorf("records[0].Number = %v, want 101", records[0].Number)
	}
	if records[0].Title != "Fix getfield_tfunc bug" {
		t.Errorf("records[0].Title = %q", records[0].Title)
	}
}

func TestEmit_ReusableAcrossCombinations(t *testing.T) {
	groups := sampleGroups()

	var first, second bytes.Buffer
	if err := Emit(&first, groups, FormatCSV, ScopeCompilerOnly); err != nil {
		t.Fatal(err)
	}
	if err := Emit(&second, groups, FormatJSON, ScopeAll); err != nil {
		t.Fatal(err)
	}
	var third bytes.Buffer
	if err := Emit(&third, groups, FormatCSV, ScopeCompilerOnly); err != nil {
		t.Fatal(err)
	}
	if first.String() != third.String() {
		t.Error("emitting a second format in between changed the first format's output")
	}
}

func TestEmit_FieldParityJSONvsCSV(t *testing.T) {
	groups := sampleGroups()

	var jsonBuf, csvBuf bytes.Buffer
	if err := Emit(&jsonBuf, groups, FormatJSON, ScopeAll); err != nil {
		t.Fatal(err)
	}
	if err := Emit(&csvBuf, groups, FormatCSV, ScopeAll); err != nil {
		t.Fatal(err)
	}

	var fromJSON []Record
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}
	fromCSV, err := ParseCSV(&csvBuf)
	if err != nil {
		t.Fatal(err)
	}

	if len(fromJSON) != len(fromCSV) {
		t.Fatalf("JSON records = %d, CSV records = %d", len(fromJSON), len(fromCSV))
	}
	for i := range fromJSON {
		j, c := fromJSON[i], fromCSV[i]
		jn, cn := 0, 0
		if j.Number != nil {
			jn = *j.Number
		}
		if c.Number != nil {
			cn = *c.Number
		}
		if jn != cn || j.Title != c.Title || j.CompilerRelated != c.CompilerRelated {
			t.Errorf("record %d mismatch: json=%+v csv=%+v", i, j, c)
		}
		if len(j.Files) != len(c.Files) {
			t.Errorf("record %d files: json=%v csv=%v", i, j.Files, c.Files)
		}
	}
}

func TestBuildRecords_FilesUnionDeduped(t *testing.T) {
	groups := GroupByPR([]domain.CommitRecord{
		commit("aaaa", "first landing (#42)", "Compiler/src/a.jl", "docs/a.md"),
		commit("bbbb", "second landing (#42)", "Compiler/src/a.jl", "Compiler/src/b.jl"),
	})
	records := BuildRecords(groups, ScopeAll)
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	want := []string{"Compiler/src/a.jl", "docs/a.md", "Compiler/src/b.jl"}
	if len(records[0].Files) != len(want) {
		t.Fatalf("Files = %v, want %v", records[0].Files, want)
	}
	for i := range want {
		if records[0].Files[i] != want[i] {
			t.Errorf("Files[%d] = %q, want %q", i, records[0].Files[i], want[i])
		}
	}
}

func TestInferFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.csv", FormatCSV},
		{"out.CSV", FormatCSV},
		{"out.json", FormatJSON},
		{"out", FormatJSON},
		{"", FormatJSON},
	}
	for _, tt := range tests {
		if got := InferFormat(tt.path); got != tt.want {
			t.Errorf("InferFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseFormat_Invalid(t *testing.T) {
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat accepted xml")
	}
	if _, err := ParseScope("everything"); err == nil {
		t.Error("ParseScope accepted everything")
	}
}

func TestRecord_GroupRoundTrip(t *testing.T) {
	n := 58123
	rec := Record{Number: &n, Title: "Fix off-by-one in alloc-opt", CompilerRelated: true, Files: []string{"Compiler/src/ssair/passes.jl"}}
	g := rec.Group()
	if g.Number != 58123 || g.Title != rec.Title || !g.CompilerRelated {
		t.Errorf("Group = %+v", g)
	}
	files := g.Files()
	if len(files) != 1 || files[0] != rec.Files[0] {
		t.Errorf("Files = %v", files)
	}
}
