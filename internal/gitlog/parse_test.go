package gitlog

import "testing"

func TestParseLog(t *testing.T) {
	raw := "\x1e" +
		"aaaa\x1fAlice\x1f2025-05-01T10:00:00+00:00\x1fBump version (#100)\n" +
		"README.md\n" +
		"\x1e" +
		"bbbb\x1fBob\x1f2025-05-02T10:00:00+00:00\x1fFix getfield_tfunc bug (#101)\n" +
		"Compiler/src/tfuncs.jl\n" +
		"Compiler/src/abstractinterpretation.jl\n" +
		"\x1e" +
		"cccc\x1fCarol\x1f2025-05-03T10:00:00+00:00\x1ftypo\n" +
		"docs/notes.md\n"

	records := parseLog(raw)
	if len(records) != 3 {
		t.Fatalf("record count = %d, want 3", len(records))
	}

	if records[0].SHA != "aaaa" || records[0].Author != "Alice" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[0].PRNumber != 100 {
		t.Errorf("records[0].PRNumber = %d, want 100", records[0].PRNumber)
	}
	if len(records[1].Files) != 2 {
		t.Errorf("records[1].Files = %v", records[1].Files)
	}
	if records[2].PRNumber != 0 {
		t.Errorf("records[2].PRNumber = %d, want 0", records[2].PRNumber)
	}
	if records[2].Subject != "typo" {
		t.Errorf("records[2].Subject = %q", records[2].Subject)
	}
}

func TestParseLog_Empty(t *testing.T) {
	if got := parseLog(""); len(got) != 0 {
		t.Errorf("parseLog(\"\") = %v, want empty", got)
	}
}

func TestParseLog_NoFiles(t *testing.T) {
	raw := "\x1eaaaa\x1fAlice\x1f2025-05-01T10:00:00+00:00\x1fempty commit (#5)\n"
	records := parseLog(raw)
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	if len(records[0].Files) != 0 {
		t.Errorf("Files = %v, want none", records[0].Files)
	}
}
