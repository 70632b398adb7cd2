package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	slideEntryRe = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
	slideNumRe   = regexp.MustCompile(`slide(\d+)\.xml`)
	xmlTagRe     = regexp.MustCompile(`<[^>]+>`)
)

// PPTX extracts text from PowerPoint presentations.
//
// A .pptx file is a zip archive with one XML document per slide. Slides
// are ordered by the numeric index embedded in the entry name, so
// slide10.xml sorts after slide2.xml. All markup is stripped, whitespace
// is collapsed, and slides are joined with a blank line. A deck with no
// slides yields "".
type PPTX struct{}

func (PPTX) Extract(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open pptx %s: %w", path, err)
	}
	defer archive.Close()

	var slides []*zip.File
	for _, entry := range archive.File {
		if slideEntryRe.MatchString(entry.Name) {
			slides = append(slides, entry)
		}
	}

	sort.SliceStable(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	texts := make([]string, 0, len(slides))
	for _, entry := range slides {
		xml, err := readEntry(entry)
		if err != nil {
			return "", fmt.Errorf("read slide %s: %w", entry.Name, err)
		}
		texts = append(texts, slideText(xml))
	}

	return strings.Join(texts, "\n\n"), nil
}

// slideNumber returns the numeric slide index embedded in an entry name.
// A missing or unparsable index orders the slide first rather than
// failing the extraction.
func slideNumber(name string) int {
	m := slideNumRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// slideText strips all markup from a slide's XML, replacing each tag with
// a single space, and collapses the remaining whitespace.
func slideText(xml string) string {
	return collapseWhitespace(xmlTagRe.ReplaceAllString(xml, " "))
}

func readEntry(entry *zip.File) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
