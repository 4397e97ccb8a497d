// Package chunker splits extracted text into ordered chunks for embedding.
package chunker

import "strings"

// DefaultMaxWords is the word budget per chunk when none is configured.
const DefaultMaxWords = 200

// Chunker splits text on sentence boundaries into chunks bounded by a word
// budget. Chunk order follows text order; chunk indices are 0-based and
// contiguous.
type Chunker struct {
	maxWords int
}

// NewChunker creates a chunker with the given per-chunk word budget.
func NewChunker(maxWords int) *Chunker {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Chunker{maxWords: maxWords}
}

// Chunk splits text into chunk texts. Sentences are kept whole; a sentence
// longer than the budget becomes its own chunk. Empty input yields nil.
func (c *Chunker) Chunk(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	var chunks []string
	var current []string
	currentWords := 0
	for _, sentence := range sentences {
		n := len(strings.Fields(sentence))
		if currentWords+n > c.maxWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentWords = 0
		}
		current = append(current, sentence)
		currentWords += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace. Newlines are treated as spaces first so wrapped lines do not
// break sentences.
func splitSentences(text string) []string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return nil
	}
	var sentences []string
	start := 0
	for i := 0; i < len(flat); i++ {
		ch := flat[i]
		if (ch == '.' || ch == '!' || ch == '?') && (i == len(flat)-1 || flat[i+1] == ' ') {
			s := strings.TrimSpace(flat[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(flat[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
