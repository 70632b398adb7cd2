package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text from PDF documents.
//
// Pages are read in order, one at a time, so memory stays bounded for
// large documents. Within a page the positioned text runs are joined with
// single spaces and whitespace runs are collapsed; pages are joined with a
// blank line. A zero-page document yields "".
type PDF struct{}

func (PDF) Extract(path string) (text string, err error) {
	// The pdf package panics on some malformed streams instead of
	// returning an error. Map that to a failed extraction.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return "", fmt.Errorf("page %d of %s: %w", i, path, err)
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n\n"), nil
}

// pageText decodes one page's text runs and collapses whitespace. The
// decoded runs go out of scope when this returns, so only one page's
// content is held at a time.
func pageText(page pdf.Page) (string, error) {
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return collapseWhitespace(text), nil
}
