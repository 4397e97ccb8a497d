package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// OOXML packages (docx, pptx) are zip archives of XML parts. Text content
// lives in narrow leaf elements (<w:t> in WordprocessingML, <a:t> in
// DrawingML), which a regex over the part body can pull out without a full
// XML parse. Run and paragraph attributes vary between producers, so the
// patterns must tolerate attributes on the text element itself.

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// collectTextNodes joins the first capture group of every match of re in
// xml with single spaces, trimming surrounding whitespace per node.
func collectTextNodes(re *regexp.Regexp, xml []byte) string {
	matches := re.FindAllSubmatch(xml, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := strings.TrimSpace(string(m[1])); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
