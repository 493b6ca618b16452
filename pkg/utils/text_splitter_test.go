package utils

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitTextShortInput(t *testing.T) {
	got := SplitText("short text", 100, 10)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("SplitText() = %v, want the input unchanged", got)
	}
}

func TestSplitTextBlankInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		if got := SplitText(input, 100, 10); got != nil {
			t.Errorf("SplitText(%q) = %v, want nil", input, got)
		}
	}
}

func TestSplitTextChunkSizeLimit(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := SplitText(text, 100, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 100 {
			t.Errorf("chunk %d holds %d runes, want <= 100", i, n)
		}
	}
}

func TestSplitTextSnapsToWordBoundary(t *testing.T) {
	// With words this short a whitespace always sits inside the overlap
	// window, so no chunk may end mid-word.
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := SplitText(text, 100, 20)

	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, " ") {
			t.Errorf("chunk %d ends mid-word: %q", i, chunk[len(chunk)-10:])
		}
	}
}

func TestSplitTextArabicRuneSafety(t *testing.T) {
	text := strings.Repeat("سياسة الاسترجاع تمتد أربعة عشر يوما من تاريخ الشراء ", 30)
	chunks := SplitText(text, 80, 16)

	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		if strings.ContainsRune(chunk, utf8.RuneError) {
			t.Errorf("chunk %d contains a mangled character", i)
		}
		if n := utf8.RuneCountInString(chunk); n > 80 {
			t.Errorf("chunk %d holds %d runes, want <= 80", i, n)
		}
	}
}

func TestSplitTextCoversAllText(t *testing.T) {
	// Unique words make each chunk's position in the input unambiguous, so
	// coverage can be checked span by span: no chunk may start past the end
	// of what previous chunks already covered.
	var b strings.Builder
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&b, "w%03d ", i)
	}
	text := b.String()
	chunks := SplitText(text, 90, 15)

	pos := 0
	for i, chunk := range chunks {
		idx := strings.Index(text, chunk)
		if idx == -1 {
			t.Fatalf("chunk %d is not a substring of the input", i)
		}
		if idx > pos {
			t.Fatalf("gap before chunk %d: coverage ends at %d, chunk starts at %d", i, pos, idx)
		}
		if end := idx + len(chunk); end > pos {
			pos = end
		}
	}
	if pos != len(text) {
		t.Errorf("coverage ends at %d, want %d", pos, len(text))
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := SplitText(text, 100, 100)

	if got := strings.Join(chunks, ""); got != text {
		t.Errorf("disjoint fallback lost text: got %d runes, want %d", len(got), len(text))
	}
}
