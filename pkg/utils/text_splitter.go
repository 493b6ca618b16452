package utils

import (
	"strings"
	"unicode"
)

// SplitText splits text into chunks of at most chunkSize runes with the
// given overlap between consecutive chunks. It slides in runes, not bytes,
// so multi-byte Arabic text is never cut inside a character, and it snaps
// each cut back to the nearest whitespace inside the overlap window so
// words stay whole. Whatever the snap skips is re-read by the next chunk.
func SplitText(text string, chunkSize int, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // degenerate overlap, fall back to disjoint chunks
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Snapping below start+step would leave a gap the next chunk
		// never covers, so that is the floor.
		cut := snapToBoundary(runes, start+step, end)
		chunks = append(chunks, string(runes[start:cut]))
	}

	return chunks
}

// snapToBoundary walks end back to the nearest whitespace, stopping at
// floor. Returns end unchanged when no boundary exists in that window.
func snapToBoundary(runes []rune, floor, end int) int {
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
