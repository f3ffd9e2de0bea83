package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeMinimalPDF writes a one-page PDF with a single text draw to dir and
// returns its path. The cross-reference table offsets are computed, not
// hard-coded, so the file is structurally valid.
func writeMinimalPDF(t *testing.T, dir, text string) string {
	t.Helper()

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n",
		fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content),
		"5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		buf.WriteString(obj)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOffset)

	path := filepath.Join(dir, "test.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write test pdf: %v", err)
	}
	return path
}

func TestExtractor_ExtractText(t *testing.T) {
	t.Run("extracts text from a valid pdf", func(t *testing.T) {
		path := writeMinimalPDF(t, t.TempDir(), "Hello")

		e := NewExtractor()
		res, err := e.ExtractText(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if res.PageCount != 1 {
			t.Errorf("expected 1 page, got %d", res.PageCount)
		}
		if res.SkippedPages != 0 {
			t.Errorf("expected no skipped pages, got %d", res.SkippedPages)
		}
		if !strings.Contains(res.Text, "Hello") {
			t.Errorf("expected extracted text to contain the page text, got %q", res.Text)
		}
	})

	t.Run("garbage file is unreadable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.pdf")
		if err := os.WriteFile(path, []byte("this is not a pdf at all"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		e := NewExtractor()
		_, err := e.ExtractText(path)
		if err == nil {
			t.Fatal("expected error for garbage input")
		}
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("expected ErrUnreadable, got %v", err)
		}
	})

	t.Run("truncated pdf is unreadable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "truncated.pdf")
		if err := os.WriteFile(path, []byte("%PDF-1.4\n1 0 obj\n<< /Type"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		e := NewExtractor()
		_, err := e.ExtractText(path)
		if err == nil {
			t.Fatal("expected error for truncated input")
		}
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("expected ErrUnreadable, got %v", err)
		}
	})

	t.Run("missing file is unreadable", func(t *testing.T) {
		e := NewExtractor()
		_, err := e.ExtractText(filepath.Join(t.TempDir(), "nope.pdf"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("expected ErrUnreadable, got %v", err)
		}
	})
}
