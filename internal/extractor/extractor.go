// Package extractor converts uploaded statement documents into a single text
// blob ready for line-based parsing. PDF documents are read page by page with
// github.com/ledongthuc/pdf; plain-text exports are decoded as UTF-8.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Kind identifies the payload format of an uploaded document.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

// ExtractionError signals that a document yielded no usable text, typically a
// scanned (image-only) PDF. It is fatal for the request and not retried.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor turns raw document bytes into text.
type Extractor struct {
	log zerolog.Logger
}

// New creates an Extractor logging page-level warnings to the given logger.
func New(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// DetectKind sniffs the payload format from the leading bytes.
func DetectKind(data []byte) Kind {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return KindPDF
	}
	return KindText
}

// Extract converts a document into a single text blob, pages joined by a
// newline. A page whose extraction fails is skipped with a warning; an empty
// or whitespace-only result is an *ExtractionError.
func (e *Extractor) Extract(data []byte, kind Kind) (string, error) {
	var text string
	switch kind {
	case KindPDF:
		var err error
		text, err = e.extractPDF(data)
		if err != nil {
			return "", &ExtractionError{Reason: "reading PDF", Err: err}
		}
	case KindText:
		// Invalid UTF-8 sequences are dropped rather than rejected.
		text = strings.ToValidUTF8(string(data), "")
	default:
		return "", &ExtractionError{Reason: fmt.Sprintf("unsupported document kind %q", kind)}
	}

	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Reason: "no text content found in document"}
	}
	return text, nil
}

// extractPDF walks the document page by page. The pdf library can panic on
// malformed files, so the whole pass runs under a recover.
func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		pageText, pageErr := extractPage(reader, i)
		if pageErr != nil {
			e.log.Warn().Int("page", i).Err(pageErr).Msg("Could not extract text from page")
			continue
		}
		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// extractPage reconstructs one page as newline-separated rows of words.
func extractPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page panic: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is null", num)
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
