package extract

import (
	"path/filepath"
	"testing"
)

func TestForFilename(t *testing.T) {
	tests := []struct {
		name string
		file string
		want Extractor
	}{
		{name: "pdf", file: "syllabus.pdf", want: PDF{}},
		{name: "pdf uppercase extension", file: "SYLLABUS.PDF", want: PDF{}},
		{name: "pptx", file: "slides.pptx", want: PPTX{}},
		{name: "pptx mixed case", file: "Slides.PpTx", want: PPTX{}},
		{name: "unknown extension", file: "notes.xyz", want: Noop{}},
		{name: "no extension", file: "README", want: Noop{}},
		{name: "legacy ppt is not supported", file: "old.ppt", want: Noop{}},
		{name: "extension only counts at the end", file: "report.pdf.txt", want: Noop{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForFilename(tt.file)
			if got != tt.want {
				t.Errorf("ForFilename(%q) = %T, want %T", tt.file, got, tt.want)
			}
		})
	}
}

func TestNoopExtract(t *testing.T) {
	// The no-op extractor never touches the file, so even a missing path
	// yields empty text without an error.
	text, err := Noop{}.Extract(filepath.Join(t.TempDir(), "does-not-exist.xyz"))
	if err != nil {
		t.Fatalf("Noop.Extract() error = %v", err)
	}
	if text != "" {
		t.Errorf("Noop.Extract() = %q, want empty", text)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \n\t ", want: ""},
		{name: "already clean", in: "one two", want: "one two"},
		{name: "mixed runs", in: "  one \n\n two\tthree  ", want: "one two three"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collapseWhitespace(tt.in); got != tt.want {
				t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
