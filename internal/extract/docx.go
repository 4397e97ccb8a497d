package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

const wordMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var (
	// Text runs, with or without attributes (xml:space="preserve" is common).
	wordTextNode = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

	// Override declarations in [Content_Types].xml; attribute order varies
	// between producers, so PartName and ContentType are matched separately.
	contentTypeOverride = regexp.MustCompile(`<Override\b[^>]*>`)
	partNameAttr        = regexp.MustCompile(`PartName="([^"]+)"`)
	contentTypeAttr     = regexp.MustCompile(`ContentType="([^"]+)"`)
)

// wordMainPart resolves the main document part from [Content_Types].xml.
// Falls back to the conventional word/document.xml when the package has no
// usable override.
func wordMainPart(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != "[Content_Types].xml" {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			break
		}
		for _, override := range contentTypeOverride.FindAllString(string(data), -1) {
			ct := contentTypeAttr.FindStringSubmatch(override)
			if ct == nil || ct[1] != wordMainContentType {
				continue
			}
			if part := partNameAttr.FindStringSubmatch(override); part != nil {
				return strings.TrimPrefix(part[1], "/")
			}
		}
		break
	}
	return "word/document.xml"
}

// extractDOCX extracts text from .docx bytes by pulling every <w:t> text
// run out of the main document part.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	mainPart := wordMainPart(zr)
	for _, f := range zr.File {
		if f.Name != mainPart {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			return "", fmt.Errorf("extract DOCX: %w", err)
		}
		return collectTextNodes(wordTextNode, data), nil
	}
	return "", fmt.Errorf("extract DOCX: %s not found", mainPart)
}
