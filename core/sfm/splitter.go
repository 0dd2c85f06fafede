package sfm

import (
	"strings"

	"github.com/FocuswithJustin/sfimport/core/mapping"
)

// cursor is the resumable state of a line being split. The enumerator keeps
// the cursor between calls so that each call yields one piece.
type cursor struct {
	rest       string // text not yet returned
	paraMarker string // marker of the logical line
	fresh      bool   // nothing returned from this line yet
}

// piece is one run of text cut from a line.
type piece struct {
	text   string
	marker string
	inline bool
}

// splitter cuts line content at inline markers.
type splitter struct {
	table   *mapping.Table
	markers []string // longest first
	leads   [256]bool

	// prefixMatch matches markers as plain prefixes and strips one space
	// after an opening marker. Otherwise markers must end at a token
	// boundary and the delimiting space is part of the marker token.
	prefixMatch bool
}

func newSplitter(table *mapping.Table, prefixMatch bool) *splitter {
	s := &splitter{
		table:       table,
		markers:     table.InlineMarkers(prefixMatch),
		prefixMatch: prefixMatch,
	}
	for _, m := range s.markers {
		s.leads[m[0]] = true
	}
	return s
}

func (s *splitter) start(marker, content string) cursor {
	return cursor{rest: content, paraMarker: marker, fresh: true}
}

// match returns the marker starting at src[i] and the length of its token.
func (s *splitter) match(src string, i int) (string, int) {
	for _, m := range s.markers {
		if !strings.HasPrefix(src[i:], m) {
			continue
		}
		if s.prefixMatch || strings.HasSuffix(m, "*") {
			return m, len(m)
		}
		end := i + len(m)
		switch {
		case end == len(src), src[end] == '\\':
			return m, len(m)
		case isSpaceByte(src[end]):
			return m, len(m) + 1
		}
	}
	return "", 0
}

// find returns the position, marker and token length of the first inline
// marker in src, or -1.
func (s *splitter) find(src string) (int, string, int) {
	for i := 0; i < len(src); i++ {
		if !s.leads[src[i]] {
			continue
		}
		if m, n := s.match(src, i); m != "" {
			return i, m, n
		}
	}
	return -1, "", 0
}

// next cuts the next piece from c. It returns false once the line is used up.
func (s *splitter) next(c cursor) (piece, cursor, bool) {
	for {
		if c.rest == "" && !c.fresh {
			return piece{}, c, false
		}

		pos, m, tok := s.find(c.rest)
		if pos < 0 {
			p := piece{text: c.rest, marker: c.paraMarker}
			return p, cursor{paraMarker: c.paraMarker}, true
		}

		// Text ahead of the marker, or the (possibly empty) paragraph text
		// that opens a line.
		if pos > 0 || c.fresh {
			p := piece{text: c.rest[:pos], marker: c.paraMarker}
			c.rest = c.rest[pos:]
			c.fresh = false
			return p, c, true
		}

		body := c.rest[tok:]
		if s.table.IsEndMarker(m) {
			end, _, _ := s.find(body)
			if end < 0 {
				end = len(body)
			}
			c.rest = body[end:]
			if end == 0 {
				continue
			}
			return piece{text: body[:end], marker: c.paraMarker}, c, true
		}

		if s.prefixMatch && !strings.HasSuffix(m, "*") && body != "" && isSpaceByte(body[0]) {
			body = body[1:]
		}
		end, _, _ := s.find(body)
		if end < 0 {
			end = len(body)
		}
		c.rest = body[end:]
		return piece{text: body[:end], marker: m, inline: true}, c, true
	}
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
