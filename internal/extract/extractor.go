// Package extract pulls the embedded text layer out of PDF files.
//
// It uses ledongthuc/pdf (pure Go, no CGO). Extraction is page-ordered:
// per-page failures are logged and skipped so one malformed page never loses
// the rest of the document, while a failure to open or parse the document
// itself is fatal.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when the document cannot be opened or parsed,
// typically because it is corrupted or encrypted.
var ErrUnreadable = errors.New("could not read pdf")

// Result holds the outcome of text extraction.
type Result struct {
	Text         string
	PageCount    int
	SkippedPages int
}

// Extractor extracts text from PDF files on disk.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText extracts text from every page of the PDF at path, in page
// order, joined by newlines.
func (e *Extractor) ExtractText(path string) (res Result, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables; a
	// document-level panic is the same failure as an open error.
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: parser panicked: %v", ErrUnreadable, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	res.PageCount = r.NumPage()

	pageTexts := make([]string, 0, res.PageCount)
	for i := 1; i <= res.PageCount; i++ {
		text, pageErr := extractPage(r, i)
		if pageErr != nil {
			fmt.Printf("[Extract] warning: skipping page %d: %v\n", i, pageErr)
			res.SkippedPages++
			continue
		}
		pageTexts = append(pageTexts, text)
	}

	res.Text = strings.Join(pageTexts, "\n")
	return res, nil
}

// extractPage reads the text of a single page. The library panics on some
// malformed content streams, so the recover turns that into a skippable
// per-page error.
func extractPage(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("page content panicked: %v", rec)
		}
	}()

	p := r.Page(pageNum)
	if p.V.IsNull() {
		return "", nil
	}

	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return text, nil
}
