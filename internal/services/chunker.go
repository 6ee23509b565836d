package services

import (
	"strings"
	"unicode/utf8"
)

const defaultChunkSize = 1000

// TextChunker packs paragraphs into chunks of at most maxChunkSize runes.
// Chunks do not overlap, so joining them in order gives the text back.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker.
func (tc *textChunker) ChunkText(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}

	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	add := func(piece, sep string) {
		size := utf8.RuneCountInString(current.String())
		if size > 0 && size+utf8.RuneCountInString(sep)+utf8.RuneCountInString(piece) > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			add(para, "\n\n")
			continue
		}

		// oversized paragraph: fall back to lines, then hard rune splits
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			for _, piece := range splitRunes(line, maxChunkSize) {
				add(piece, "\n")
			}
		}
	}
	flush()

	return chunks
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
