// Package sfm splits Standard Format (USFM/SFM-like) scripture files into
// marker-tagged text segments.
//
// An Enumerator walks the source files of one import domain and returns one
// TextSegment per Next call, tracking the book/chapter/verse reference as it
// goes, splitting lines at inline markers and converting legacy-encoded text
// to Unicode. A Stream chains the enumerators of the main, back-translation
// and notes domains.
package sfm

import (
	"io"
	"iter"
	"log/slog"

	"github.com/FocuswithJustin/sfimport/core/encoding"
	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/core/ref"
)

// Reserved markers recognised regardless of the mapping table.
const (
	MarkerBook    = `\id`
	MarkerChapter = `\c`
	MarkerVerse   = `\v`
)

// TextSegment is one unit of output. It is never modified after Next
// returns it.
type TextSegment struct {
	// Text is the segment text converted to Unicode.
	Text string `json:"text"`

	// Marker is the marker whose style governs the text: the paragraph
	// marker of the line, or the inline marker of an inline run.
	Marker string `json:"marker"`

	// LiteralVerse is the verse number exactly as written, for verse segments.
	LiteralVerse string `json:"literal_verse,omitempty"`

	FirstRef ref.BCVRef `json:"first_ref"`
	LastRef  ref.BCVRef `json:"last_ref"`

	SourceFile string           `json:"source_file"`
	Line       int              `json:"line"`
	Domain     importset.Domain `json:"domain"`
	NoteType   string           `json:"note_type,omitempty"`
}

// Config controls an Enumerator or Stream.
type Config struct {
	// StartBook and EndBook bound the books imported (canonical numbers).
	// Zero values mean the first and last book of the canon.
	StartBook int
	EndBook   int

	// Registry supplies legacy encoding converters. Nil uses the x/text
	// backed charmap registry.
	Registry encoding.Registry

	// Logger receives debug and warning events. Nil uses the global logger.
	Logger *slog.Logger

	// Opener opens source files. Nil opens files from disk, decompressing
	// .xz files.
	Opener Opener
}

func (c Config) withDefaults(logger *slog.Logger) Config {
	if c.StartBook <= 0 {
		c.StartBook = 1
	}
	if c.EndBook <= 0 {
		c.EndBook = ref.BookCount
	}
	if c.Registry == nil {
		c.Registry = encoding.NewCharmapRegistry()
	}
	if c.Logger == nil {
		c.Logger = logger
	}
	if c.Opener == nil {
		c.Opener = OpenSource
	}
	return c
}

// seq adapts a Next function to a range-over-func iterator that stops after
// the first error.
func seq(next func() (*TextSegment, error)) iter.Seq2[*TextSegment, error] {
	return func(yield func(*TextSegment, error) bool) {
		for {
			seg, err := next()
			if err == io.EOF {
				return
			}
			if !yield(seg, err) || err != nil {
				return
			}
		}
	}
}
