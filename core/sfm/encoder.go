package sfm

import (
	"github.com/FocuswithJustin/sfimport/core/encoding"
	"github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/core/mapping"
)

// segmentEncoder converts legacy-encoded segment text to Unicode. It
// remembers the converter of the last paragraph-level segment so that
// character runs without their own writing system inherit it.
type segmentEncoder struct {
	table      *mapping.Table
	resolver   *encoding.Resolver
	domain     importset.Domain
	vernacular string
	analysis   string

	// per file
	unicode bool
	fileWS  string

	prev encoding.Converter
}

func (e *segmentEncoder) openFile(f *importset.SourceFile, unicode bool) {
	e.unicode = unicode
	e.fileWS = f.WritingSystem
}

// convert returns text in Unicode, converted with the converter the marker
// calls for.
func (e *segmentEncoder) convert(text, marker string, loc location) (string, error) {
	if e.unicode || marker == MarkerBook {
		return text, nil
	}

	m, ok := e.table.Lookup(marker)
	if !ok {
		return e.apply(e.prev, text)
	}

	var conv encoding.Converter
	switch {
	case m.WritingSystem != "":
		c, err := e.resolve(m.WritingSystem, marker, loc)
		if err != nil {
			return "", err
		}
		conv = c
		if paragraphLevel(m) {
			e.prev = conv
		}

	case paragraphLevel(m):
		c, err := e.resolve(e.defaultWS(m), marker, loc)
		if err != nil {
			return "", err
		}
		conv = c
		if e.remembers(m) {
			e.prev = conv
		}

	default:
		conv = e.prev
	}
	return e.apply(conv, text)
}

// paragraphLevel reports whether a mapping sets the writing system for the
// text that follows it.
func paragraphLevel(m mapping.Mapping) bool {
	switch {
	case m.StyleKind == mapping.StyleNone, m.StyleKind == mapping.StyleParagraph:
		return true
	case m.StyleName == mapping.StyleVerseNumber, m.StyleName == mapping.StyleChapterNumber:
		return true
	case m.StyleName == mapping.StyleDefaultParagraphCh && !m.IsInline:
		return true
	}
	return false
}

// remembers reports whether a paragraph-level mapping without its own
// writing system replaces the inherited converter. Verse and chapter number
// character styles in the main domain do not.
func (e *segmentEncoder) remembers(m mapping.Mapping) bool {
	paraOrNone := m.StyleKind == mapping.StyleNone || m.StyleKind == mapping.StyleParagraph
	if e.domain == importset.DomainMain {
		return paraOrNone || m.Domain != mapping.DomainDefault
	}
	return paragraphLevel(m)
}

func (e *segmentEncoder) defaultWS(m mapping.Mapping) string {
	analysis := e.analysis
	if e.domain != importset.DomainMain && e.fileWS != "" {
		analysis = e.fileWS
	}
	if m.Domain.Has(mapping.DomainBackTrans) || m.Domain.Has(mapping.DomainNote) {
		return analysis
	}
	if e.domain == importset.DomainMain {
		return e.vernacular
	}
	return analysis
}

func (e *segmentEncoder) resolve(ws, marker string, loc location) (encoding.Converter, error) {
	c, err := e.resolver.Resolve(ws)
	if err != nil {
		var nf *errors.NotFoundError
		if errors.As(err, &nf) {
			return nil, &errors.ConverterMissingError{Path: loc.path, Line: loc.line, MappingID: nf.ID, Marker: marker}
		}
		return nil, err
	}
	return c, nil
}

func (e *segmentEncoder) apply(c encoding.Converter, text string) (string, error) {
	if c == nil {
		return text, nil
	}
	out, err := c.Convert(text)
	if err != nil {
		return "", &errors.ConversionError{Converter: c.Name(), Message: err.Error()}
	}
	return out, nil
}
