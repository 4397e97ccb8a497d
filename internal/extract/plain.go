package extract

import (
	"bytes"
	"unicode/utf8"
)

// extractPlain returns content as a string. Byte sequences that are not
// valid UTF-8 are replaced with U+FFFD so downstream chunking and keyword
// indexing always receive valid text.
func extractPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return string(bytes.ToValidUTF8(content, []byte("�"))), nil
}
