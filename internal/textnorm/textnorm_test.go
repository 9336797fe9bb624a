package textnorm

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello   world  ", "Hello world"},
		{"line one\nline two", "line one line two"},
		{"tab\tseparated", "tab separated"},
		{"ﬁnancial report", "financial report"}, // ligature folded by NFKC
		{"bell\x07char", "bellchar"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	if Key("  Table   of CONTENTS ") != Key("table of contents") {
		t.Errorf("expected keys to match: %q vs %q", Key("  Table   of CONTENTS "), Key("table of contents"))
	}
}

func TestWords(t *testing.T) {
	got := Words(" one  two\nthree ")
	if len(got) != 3 {
		t.Fatalf("expected 3 words, got %d (%v)", len(got), got)
	}
}
