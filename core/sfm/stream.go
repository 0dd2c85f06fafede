package sfm

import (
	"io"
	"iter"

	"github.com/FocuswithJustin/sfimport/core/importset"
)

// Stream yields the segments of every domain of an import: scripture first,
// then the back translation, then notes. Domains without files are skipped.
type Stream struct {
	settings *importset.Settings
	cfg      Config
	domains  []importset.Domain
	cur      *Enumerator
	count    int
	closed   bool
}

// NewStream creates a stream over all domains of settings.
func NewStream(settings *importset.Settings, cfg Config) *Stream {
	return &Stream{settings: settings, cfg: cfg, domains: importset.Domains}
}

// Next returns the next segment, or io.EOF after the last domain. An error
// ends the stream; later calls return io.EOF.
func (s *Stream) Next() (*TextSegment, error) {
	if s.closed {
		return nil, io.EOF
	}
	for {
		if s.cur == nil {
			if len(s.domains) == 0 {
				return nil, io.EOF
			}
			d := s.domains[0]
			s.domains = s.domains[1:]
			if len(s.settings.Files(d)) == 0 {
				continue
			}
			e, err := NewEnumerator(s.settings, d, s.cfg)
			if err != nil {
				s.Close()
				return nil, err
			}
			s.cur = e
		}

		seg, err := s.cur.Next()
		if err == io.EOF {
			s.cur.Close()
			s.cur = nil
			continue
		}
		if err != nil {
			// Fatal to the whole import: later domains are not read.
			s.Close()
			return nil, err
		}
		s.count++
		return seg, nil
	}
}

// All returns an iterator over the remaining segments.
func (s *Stream) All() iter.Seq2[*TextSegment, error] {
	return seq(s.Next)
}

// Count returns the number of segments returned so far.
func (s *Stream) Count() int { return s.count }

// Close releases any open file.
func (s *Stream) Close() error {
	s.closed = true
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}
