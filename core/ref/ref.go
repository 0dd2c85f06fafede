// Package ref provides book/chapter/verse references and the parsers for the
// reference text found in Standard Format markers.
package ref

import (
	"cmp"
	"strconv"
	"strings"
)

// BCVRef is a book/chapter/verse reference with an optional verse segment.
// References are totally ordered by book, chapter, verse, then segment.
type BCVRef struct {
	// Book is the canonical book number (1-66, 0 when unknown).
	Book int `json:"book"`

	// Chapter is the chapter number.
	Chapter int `json:"chapter"`

	// Verse is the verse number (0 for the book or chapter introduction).
	Verse int `json:"verse"`

	// Segment is the sub-verse letter as an ordinal ('a' = 1), 0 when absent.
	Segment int `json:"segment,omitempty"`
}

// New returns a reference without a segment.
func New(book, chapter, verse int) BCVRef {
	return BCVRef{Book: book, Chapter: chapter, Verse: verse}
}

// Compare returns -1, 0 or +1 as r sorts before, equal to or after other.
func (r BCVRef) Compare(other BCVRef) int {
	if c := cmp.Compare(r.Book, other.Book); c != 0 {
		return c
	}
	if c := cmp.Compare(r.Chapter, other.Chapter); c != 0 {
		return c
	}
	if c := cmp.Compare(r.Verse, other.Verse); c != 0 {
		return c
	}
	return cmp.Compare(r.Segment, other.Segment)
}

// IsValid reports whether the reference names a known book.
func (r BCVRef) IsValid() bool {
	return r.Book >= 1 && r.Book <= BookCount
}

// SegmentLetter returns the verse segment as a letter ("a", "b"), or "".
func (r BCVRef) SegmentLetter() string {
	if r.Segment <= 0 || r.Segment > 26 {
		return ""
	}
	return string(rune('a' + r.Segment - 1))
}

// String renders the reference as "MAT 5:3a".
func (r BCVRef) String() string {
	var sb strings.Builder
	if code := BookCode(r.Book); code != "" {
		sb.WriteString(code)
	} else {
		sb.WriteString(strconv.Itoa(r.Book))
	}
	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(r.Chapter))
	sb.WriteString(":")
	sb.WriteString(strconv.Itoa(r.Verse))
	sb.WriteString(r.SegmentLetter())
	return sb.String()
}

// Range is an inclusive pair of references.
type Range struct {
	Start BCVRef `json:"start"`
	End   BCVRef `json:"end"`
}

// ContainsBook reports whether book lies within the books spanned by the range.
func (rr Range) ContainsBook(book int) bool {
	return book >= rr.Start.Book && book <= rr.End.Book
}
