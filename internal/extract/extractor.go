// Package extract provides text extraction from document files. It is the
// extraction collaborator consumed by the pipeline: it returns the extracted
// text with a confidence estimate, and classifies failures so the caller can
// decide whether to retry.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

// Extraction failure kinds. UnsupportedType and Other are permanent;
// Timeout is transient.
const (
	KindUnsupportedType ErrorKind = "unsupported_type"
	KindTimeout         ErrorKind = "timeout"
	KindOther           ErrorKind = "other"
)

// Error is an extraction failure with a kind for retry classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the failure may succeed on retry.
func (e *Error) Transient() bool { return e.Kind == KindTimeout }

// Confidence levels per format. Binary formats extracted through structural
// parsing score lower than plain text read verbatim.
const (
	confidencePlain  = 1.0
	confidenceOffice = 0.95
	confidencePDF    = 0.9
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at sourceLocation and returns its text content and
// a confidence estimate in (0, 1]. A context deadline that expires during
// extraction is reported as a Timeout error; an extension outside the
// supported set is an UnsupportedType error.
func (e *Extractor) Extract(ctx context.Context, sourceLocation string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, &Error{Kind: KindTimeout, Err: err}
	}
	content, err := os.ReadFile(sourceLocation)
	if err != nil {
		return "", 0, &Error{Kind: KindOther, Err: fmt.Errorf("read file: %w", err)}
	}
	ext := strings.ToLower(filepath.Ext(sourceLocation))
	return e.ExtractBytes(ctx, content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, ext string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, &Error{Kind: KindTimeout, Err: err}
	}
	var (
		text       string
		confidence float64
		err        error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(content)
		confidence = confidencePDF
	case ".docx":
		text, err = extractDOCX(content)
		confidence = confidenceOffice
	case ".xlsx":
		text, err = extractExcel(content)
		confidence = confidenceOffice
	case ".pptx":
		text, err = extractPPTX(content)
		confidence = confidenceOffice
	case ".txt", ".md", ".rst":
		text, err = extractPlain(content)
		confidence = confidencePlain
	default:
		return "", 0, &Error{Kind: KindUnsupportedType, Err: fmt.Errorf("unsupported extension %q", ext)}
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, &Error{Kind: KindTimeout, Err: ctx.Err()}
		}
		return "", 0, &Error{Kind: KindOther, Err: err}
	}
	return text, confidence, nil
}
