package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var drawingTextNode = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// slideNumber returns the numeric suffix of a slide part name, or -1 when
// the name does not follow the slideN.xml convention.
func slideNumber(name string) int {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n
}

// extractPPTX extracts text from .pptx bytes by pulling every <a:t> text
// node out of each slide part. Slides are processed in deck order: a
// numeric sort on the slideN suffix, so slide10 follows slide2.
func extractPPTX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract PPTX: not a zip: %w", err)
	}

	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		ni, nj := slideNumber(slides[i].Name), slideNumber(slides[j].Name)
		if ni != nj {
			return ni < nj
		}
		return slides[i].Name < slides[j].Name
	})

	var parts []string
	for _, f := range slides {
		data, err := readZipEntry(f)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		if text := collectTextNodes(drawingTextNode, data); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
