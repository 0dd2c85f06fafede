package ref

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// VerseSpec is a parsed verse specification such as "3", "3a" or "3-5".
type VerseSpec struct {
	// Literal is the specification exactly as written.
	Literal string

	FirstVerse   int
	FirstSegment int
	LastVerse    int
	LastSegment  int
}

// verseGrammar is the participle grammar for verse numbers in \v markers.
// Examples: "3", "3a", "3-5", "3a-4b", "10–12" (en dash bridge)
//
//nolint:govet // participle grammar tags are not standard struct tags
type verseGrammar struct {
	First *versePoint `parser:"@@"`
	Last  *versePoint `parser:"( Bridge @@ )?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type versePoint struct {
	Verse   int     `parser:"@Int"`
	Segment *string `parser:"@Segment?"`
}

var verseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Segment", Pattern: `[a-z]`},
	{Name: "Bridge", Pattern: `[-\x{2013}]`},
})

var verseParser = participle.MustBuild[verseGrammar](
	participle.Lexer(verseLexer),
)

// ParseVerse parses a verse specification. The single-verse form yields a
// spec whose first and last verse are equal.
func ParseVerse(s string) (VerseSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VerseSpec{}, fmt.Errorf("empty verse specification")
	}

	parsed, err := verseParser.ParseString("", s)
	if err != nil {
		return VerseSpec{}, fmt.Errorf("invalid verse specification %q: %w", s, err)
	}

	spec := VerseSpec{
		Literal:      s,
		FirstVerse:   parsed.First.Verse,
		FirstSegment: segmentOrdinal(parsed.First.Segment),
	}
	if parsed.Last != nil {
		spec.LastVerse = parsed.Last.Verse
		spec.LastSegment = segmentOrdinal(parsed.Last.Segment)
	} else {
		spec.LastVerse = spec.FirstVerse
		spec.LastSegment = spec.FirstSegment
	}
	if spec.LastVerse < spec.FirstVerse {
		return VerseSpec{}, fmt.Errorf("invalid verse specification %q: bridge ends before it starts", s)
	}

	return spec, nil
}

func segmentOrdinal(s *string) int {
	if s == nil || *s == "" {
		return 0
	}
	return int((*s)[0]-'a') + 1
}
