package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

// Format selects the output serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Scope filters which groups are emitted.
type Scope string

const (
	ScopeAll          Scope = "all"
	ScopeCompilerOnly Scope = "compiler-only"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or csv)", s)
	}
}

// ParseScope validates a --scope flag value.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeCompilerOnly:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q (want all or compiler-only)", s)
	}
}

// InferFormat picks a format from the output file extension, defaulting
// to JSON when the extension decides nothing.
func InferFormat(outputPath string) Format {
	if strings.EqualFold(filepath.Ext(outputPath), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// Record is one emitted row. Field order fixes the JSON key order:
// number, sha, title, is_compiler_related, files_changed. Number is
// null for direct-push singletons, which carry their commit sha
// instead.
type Record struct {
	Number          *int     `json:"number"`
	SHA             string   `json:"sha,omitempty"`
	Title           string   `json:"title"`
	CompilerRelated bool     `json:"is_compiler_related"`
	Files           []string `json:"files_changed"`
}

// Group converts a loaded record back into a group, for feeding a
// previously emitted compiler-PR list into the gap tracker.
func (r Record) Group() *domain.PullRequestGroup {
	g := &domain.PullRequestGroup{
		SHA:             r.SHA,
		Title:           r.Title,
		CompilerRelated: r.CompilerRelated,
		Commits:         []domain.CommitRecord{{SHA: r.SHA, Files: r.Files}},
	}
	if r.Number != nil {
		g.Number = *r.Number
	}
	return g
}

// BuildRecords flattens groups into emission records, applying the
// scope filter. The input is never mutated, so one resolve pass can
// feed several format/scope combinations.
func BuildRecords(groups []*domain.PullRequestGroup, scope Scope) []Record {
	records := make([]Record, 0, len(groups))
	for _, g := range groups {
		if scope == ScopeCompilerOnly && !g.CompilerRelated {
			continue
		}
		rec := Record{
			Title:           g.Title,
			CompilerRelated: g.CompilerRelated,
			Files:           g.Files(),
		}
		if g.Number > 0 {
			n := g.Number
			rec.Number = &n
		} else {
			rec.SHA = g.SHA
		}
		records = append(records, rec)
	}
	return records
}

// Emit serializes groups to w in the requested format and scope.
func Emit(w io.Writer, groups []*domain.PullRequestGroup, format Format, scope Scope) error {
	records := BuildRecords(groups, scope)
	switch format {
	case FormatCSV:
		return emitCSV(w, records)
	default:
		return emitJSON(w, records)
	}
}

func emitJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

var csvHeader = []string{"number", "sha", "title", "is_compiler_related", "files_changed"}

func emitCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		number := ""
		if r.Number != nil {
			number = strconv.Itoa(*r.Number)
		}
		row := []string{
			number,
			r.SHA,
			r.Title,
			strconv.FormatBool(r.CompilerRelated),
			// Paths may legitimately contain commas; semicolons may not.
			strings.Join(r.Files, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadRecords reads back a JSON report produced by Emit.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return records, nil
}

// ParseCSV reads back a CSV report produced by Emit.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var records []Record
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("row has %d columns, want %d", len(row), len(csvHeader))
		}
		rec := Record{SHA: row[1], Title: row[2]}
		if row[0] != "" {
			n, err := strconv.Atoi(row[0])
			if err != nil {
				return nil, fmt.Errorf("bad PR number %q: %w", row[0], err)
			}
			rec.Number = &n
		}
		rec.CompilerRelated, err = strconv.ParseBool(row[3])
		if err != nil {
			return nil, fmt.Errorf("bad is_compiler_related %q: %w", row[3], err)
		}
		if row[4] != "" {
			rec.Files = strings.Split(row[4], ";")
		}
		records = append(records, rec)
	}
	return records, nil
}
