package sfm

import (
	"io"
	"iter"
	"log/slog"

	"github.com/FocuswithJustin/sfimport/core/encoding"
	"github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/core/ref"
	"github.com/FocuswithJustin/sfimport/internal/logging"
)

// Enumerator yields the text segments of one import domain in file order.
// It is not safe for concurrent use.
type Enumerator struct {
	domain   importset.Domain
	logger   *slog.Logger
	books    ref.Range
	validate bool

	reader  *LineReader
	tracker refTracker
	split   *splitter
	enc     segmentEncoder

	loc         location
	cur         cursor
	splitting   bool
	lineLiteral string
	count       int
	closed      bool
}

// NewEnumerator prepares an enumerator over the files of domain. No file is
// opened until the first call to Next.
func NewEnumerator(settings *importset.Settings, domain importset.Domain, cfg Config) (*Enumerator, error) {
	if settings == nil {
		return nil, errors.NewValidation("settings", "settings are required")
	}
	cfg = cfg.withDefaults(logging.GetLogger())
	if cfg.StartBook > cfg.EndBook {
		return nil, &errors.ValidationError{
			Field:   "books",
			Value:   ref.BookCode(cfg.StartBook) + "-" + ref.BookCode(cfg.EndBook),
			Message: "start book is after end book",
		}
	}

	table, err := settings.Table(domain)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.With("domain", domain.String())
	logger.Debug("enumerator ready", "files", len(settings.Files(domain)), "mappings", table.Len())
	e := &Enumerator{
		domain:   domain,
		logger:   logger,
		books:    ref.Range{Start: ref.New(cfg.StartBook, 0, 0), End: ref.New(cfg.EndBook, 0, 0)},
		validate: settings.ImportType.IsParatext(),
		reader:   NewLineReader(settings.Files(domain), cfg.StartBook, cfg.EndBook, cfg.Opener, logger, domain.String()),
		tracker:  refTracker{logger: logger},
		split:    newSplitter(table, settings.ImportType == importset.TypeParatext5),
		enc: segmentEncoder{
			table:      table,
			resolver:   encoding.NewResolver(cfg.Registry, settings.LegacyMapping),
			domain:     domain,
			vernacular: settings.VernacularWS,
			analysis:   settings.AnalysisWS,
		},
	}
	return e, nil
}

// Next returns the next segment, or io.EOF when every file has been read.
// Any other error leaves no file open and ends the enumeration.
func (e *Enumerator) Next() (*TextSegment, error) {
	if e.closed {
		return nil, io.EOF
	}
	seg, err := e.next()
	if err != nil && err != io.EOF {
		e.reader.Close()
		e.closed = true
	}
	return seg, err
}

// All returns an iterator over the remaining segments. Iteration stops after
// the first error.
func (e *Enumerator) All() iter.Seq2[*TextSegment, error] {
	return seq(e.Next)
}

// Close releases the open file. It is safe to call more than once.
func (e *Enumerator) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.splitting = false
	stats := e.enc.resolver.Stats()
	e.logger.Debug("enumerator closed", "segments", e.count,
		"converters", stats.Size, "converter_cache_hits", stats.Hits)
	return e.reader.Close()
}

func (e *Enumerator) next() (*TextSegment, error) {
	for {
		if e.splitting {
			p, c, ok := e.split.next(e.cur)
			e.cur = c
			if ok {
				return e.emit(p)
			}
			e.splitting = false
		}

		if !e.reader.IsOpen() {
			ok, err := e.reader.OpenNext()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, io.EOF
			}
			e.tracker.resetFile()
			e.enc.openFile(e.reader.File(), e.reader.Unicode())
		}

		line, err := e.reader.ReadLine()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := e.startLine(line); err != nil {
			return nil, err
		}
	}
}

func (e *Enumerator) startLine(line logicalLine) error {
	e.loc = location{path: e.reader.File().Path, line: line.number, text: line.text}

	marker, content := splitMarker(line.text)
	if e.validate && !validMarker(marker) {
		return &errors.InvalidMarkerError{
			Marker:    marker,
			Reference: e.tracker.start.String(),
			Path:      e.loc.path,
			Line:      e.loc.line,
		}
	}
	if !e.tracker.bookSeen && marker != MarkerBook {
		return nil
	}

	adjusted, literal, err := e.tracker.apply(marker, content, e.loc)
	if err != nil {
		return err
	}
	if !e.tracker.bookSeen || !e.books.ContainsBook(e.tracker.start.Book) {
		return nil
	}

	e.lineLiteral = literal
	e.cur = e.split.start(marker, adjusted)
	e.splitting = true
	return nil
}

func (e *Enumerator) emit(p piece) (*TextSegment, error) {
	text, literal := p.text, ""
	switch {
	case p.inline && (p.marker == MarkerVerse || p.marker == MarkerChapter):
		adjusted, lit, err := e.tracker.apply(p.marker, p.text, e.loc)
		if err != nil {
			return nil, err
		}
		text, literal = adjusted, lit
	case p.marker == MarkerVerse:
		literal = e.lineLiteral
		e.lineLiteral = ""
	}

	converted, err := e.enc.convert(text, p.marker, e.loc)
	if err != nil {
		return nil, err
	}

	f := e.reader.File()
	e.count++
	return &TextSegment{
		Text:         converted,
		Marker:       p.marker,
		LiteralVerse: literal,
		FirstRef:     e.tracker.start,
		LastRef:      e.tracker.end,
		SourceFile:   f.Path,
		Line:         e.loc.line,
		Domain:       e.domain,
		NoteType:     f.NoteType,
	}, nil
}

// splitMarker separates the leading marker of a line from its content. The
// marker runs to the first whitespace or backslash; one whitespace
// character after it is dropped.
func splitMarker(text string) (string, string) {
	i := 1
	for i < len(text) && text[i] != '\\' && !isSpaceByte(text[i]) {
		i++
	}
	marker, rest := text[:i], text[i:]
	if rest != "" && isSpaceByte(rest[0]) {
		rest = rest[1:]
	}
	return marker, rest
}

// validMarker reports whether marker uses only the Paratext marker alphabet.
func validMarker(marker string) bool {
	if len(marker) < 2 || marker[0] != '\\' {
		return false
	}
	for i := 1; i < len(marker); i++ {
		switch c := marker[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '*', c == '+', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
