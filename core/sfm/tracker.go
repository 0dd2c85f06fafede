package sfm

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/FocuswithJustin/sfimport/core/ref"
)

// location identifies the logical line being processed.
type location struct {
	path string
	line int
	text string
}

// refTracker follows the book/chapter/verse position through a domain.
// bookSeen is per file: lines before the first recognised book marker of a
// file are not emitted.
type refTracker struct {
	start, end ref.BCVRef
	bookSeen   bool
	logger     *slog.Logger
}

func (t *refTracker) resetFile() {
	t.bookSeen = false
}

// apply updates the reference for a marker and returns the content with the
// reference text removed, plus the literal verse text for verse markers.
func (t *refTracker) apply(marker, content string, loc location) (string, string, error) {
	switch marker {
	case MarkerBook:
		n, ok := bookNumber(content)
		if !ok {
			// Lines up to the next recognised book are dropped; the
			// reference keeps its last value.
			t.bookSeen = false
			t.logger.Warn("unrecognized book code", "code", firstField(content), "path", loc.path, "line", loc.line)
			return content, "", nil
		}
		t.start = ref.New(n, 1, 0)
		t.end = t.start
		t.bookSeen = true
		return content, "", nil

	case MarkerChapter:
		trimmed := strings.TrimLeftFunc(content, unicode.IsSpace)
		digits := leadingDigits(trimmed)
		chapter, err := strconv.Atoi(digits)
		if err != nil {
			return "", "", &errors.InvalidChapterError{
				Path:        loc.path,
				Line:        loc.line,
				LineText:    loc.text,
				Book:        ref.BookCode(t.start.Book),
				ChapterText: firstField(trimmed),
			}
		}
		t.start = ref.New(t.start.Book, chapter, 1)
		t.end = t.start
		return strings.TrimLeftFunc(trimmed[len(digits):], unicode.IsSpace), "", nil

	case MarkerVerse:
		trimmed := strings.TrimLeftFunc(content, unicode.IsSpace)
		literal := verseLiteral(firstField(trimmed))
		rest := strings.TrimLeftFunc(trimmed[len(literal):], unicode.IsSpace)
		if literal == "" {
			return rest, "", nil
		}
		spec, err := ref.ParseVerse(literal)
		if err != nil {
			t.logger.Warn("unparseable verse number", "verse", literal, "ref", t.start.String(), "path", loc.path, "line", loc.line)
			return rest, literal, nil
		}
		book, chapter := t.start.Book, t.start.Chapter
		t.start = ref.BCVRef{Book: book, Chapter: chapter, Verse: spec.FirstVerse, Segment: spec.FirstSegment}
		t.end = ref.BCVRef{Book: book, Chapter: chapter, Verse: spec.LastVerse, Segment: spec.LastSegment}
		return rest, literal, nil
	}

	if content == " " {
		content = ""
	}
	return content, "", nil
}

// maxBookNameWords is the word count of the longest English book name.
const maxBookNameWords = 3

// bookNumber recognises the book named at the start of \id content: a book
// code, or an English name of up to maxBookNameWords words.
func bookNumber(content string) (int, bool) {
	fields := strings.Fields(content)
	for k := 1; k <= len(fields) && k <= maxBookNameWords; k++ {
		if n, ok := ref.BookNumber(strings.Join(fields[:k], " ")); ok {
			return n, true
		}
	}
	return 0, false
}

// verseLiteral returns the verse number at the start of field. A field that
// is not a verse spec as a whole is cut after its leading spec, so "3-5text"
// yields "3-5". Fields with no leading digits are returned unchanged.
func verseLiteral(field string) string {
	if _, err := ref.ParseVerse(field); err == nil {
		return field
	}
	if n := versePrefix(field); n > 0 {
		return field[:n]
	}
	return field
}

// versePrefix returns the length of the leading digits[letter][bridge
// digits[letter]] run of s.
func versePrefix(s string) int {
	i := len(leadingDigits(s))
	if i == 0 {
		return 0
	}
	i = segmentLetter(s, i)
	for _, bridge := range []string{"-", "\u2013"} {
		if !strings.HasPrefix(s[i:], bridge) {
			continue
		}
		j := i + len(bridge)
		if k := j + len(leadingDigits(s[j:])); k > j {
			i = segmentLetter(s, k)
		}
		break
	}
	return i
}

// segmentLetter advances past a single lower-case segment letter at i, which
// must not start a word.
func segmentLetter(s string, i int) int {
	if i < len(s) && s[i] >= 'a' && s[i] <= 'z' && (i+1 == len(s) || !isASCIILetter(s[i+1])) {
		return i + 1
	}
	return i
}

func isASCIILetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func firstField(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
