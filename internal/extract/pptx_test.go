package extract

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePPTX builds a minimal .pptx archive containing the given slide
// entries. Map keys are full entry names, values the entry XML.
func writePPTX(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create pptx: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func slideXML(text string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><p:sld><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sld>`, text)
}

func TestPPTXExtract(t *testing.T) {
	path := writePPTX(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML("Intro to Databases"),
		"ppt/slides/slide2.xml": slideXML("Relational   Model"),
		"[Content_Types].xml":   `<Types/>`,
		"ppt/presentation.xml":  `<p:presentation/>`,
	})

	text, err := PPTX{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := "Intro to Databases\n\nRelational Model"
	if text != want {
		t.Errorf("Extract() = %q, want %q", text, want)
	}
}

func TestPPTXExtract_NumericSlideOrder(t *testing.T) {
	// Twelve slides: lexicographic order would put slide10 before slide2.
	entries := make(map[string]string)
	for i := 1; i <= 12; i++ {
		entries[fmt.Sprintf("ppt/slides/slide%d.xml", i)] = slideXML(fmt.Sprintf("slide number %d", i))
	}
	path := writePPTX(t, entries)

	text, err := PPTX{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	slides := strings.Split(text, "\n\n")
	if len(slides) != 12 {
		t.Fatalf("got %d slides, want 12", len(slides))
	}
	for i, slide := range slides {
		want := fmt.Sprintf("slide number %d", i+1)
		if slide != want {
			t.Errorf("slide[%d] = %q, want %q", i, slide, want)
		}
	}
}

func TestPPTXExtract_IgnoresNonSlideEntries(t *testing.T) {
	path := writePPTX(t, map[string]string{
		"ppt/slides/slide1.xml":               slideXML("only real slide"),
		"ppt/slides/_rels/slide1.xml.rels":    `<Relationships>ignored</Relationships>`,
		"ppt/notesSlides/notesSlide1.xml":     slideXML("speaker notes"),
		"ppt/slideLayouts/slideLayout1.xml":   slideXML("layout"),
		"ppt/slideMasters/slideMaster1.xml":   slideXML("master"),
		"docProps/app.xml":                    `<Properties/>`,
	})

	text, err := PPTX{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "only real slide" {
		t.Errorf("Extract() = %q, want %q", text, "only real slide")
	}
}

func TestPPTXExtract_EmptyDeck(t *testing.T) {
	path := writePPTX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
	})

	text, err := PPTX{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Errorf("Extract() = %q, want empty for deck with no slides", text)
	}
}

func TestPPTXExtract_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pptx")
	if err := os.WriteFile(path, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := (PPTX{}).Extract(path); err == nil {
		t.Error("Extract() on corrupt archive should return an error")
	}
}

func TestPPTXExtract_Deterministic(t *testing.T) {
	path := writePPTX(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML("same bytes"),
		"ppt/slides/slide2.xml": slideXML("same text"),
	})

	first, err := PPTX{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	second, err := PPTX{}.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if first != second {
		t.Errorf("repeated extraction differs: %q vs %q", first, second)
	}
}

func TestSlideNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "simple", in: "ppt/slides/slide7.xml", want: 7},
		{name: "double digit", in: "ppt/slides/slide42.xml", want: 42},
		{name: "no number falls back to zero", in: "ppt/slides/slideX.xml", want: 0},
		{name: "no match at all", in: "ppt/presentation.xml", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slideNumber(tt.in); got != tt.want {
				t.Errorf("slideNumber(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
