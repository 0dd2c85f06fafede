package sfm

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/sfimport/core/encoding"
	"github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/internal/logging"
)

// Opener opens a source file for reading.
type Opener func(path string) (io.ReadCloser, error)

// OpenSource opens a file from disk. Files ending in .xz are decompressed
// on the fly.
func OpenSource(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return f, nil
	}
	zr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{zr, f}, nil
}

// logicalLine is a marked physical line with its continuation lines appended.
type logicalLine struct {
	text   string
	number int // physical line number of the marked line
}

// LineReader yields logical lines from an ordered list of source files,
// skipping files whose declared books miss the requested range.
type LineReader struct {
	files      []importset.SourceFile
	start, end int
	open       Opener
	logger     *slog.Logger
	domain     string

	next    int // index of the next file to consider
	file    *importset.SourceFile
	closer  io.Closer
	br      *bufio.Reader
	unicode bool
	lineNo  int

	peeked     string
	peekedNo   int
	havePeeked bool
}

// NewLineReader creates a reader over files for books in [start, end].
func NewLineReader(files []importset.SourceFile, start, end int, open Opener, logger *slog.Logger, domain string) *LineReader {
	if open == nil {
		open = OpenSource
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &LineReader{
		files:  files,
		start:  start,
		end:    end,
		open:   open,
		logger: logger,
		domain: domain,
	}
}

// IsOpen reports whether a file is currently open.
func (lr *LineReader) IsOpen() bool { return lr.closer != nil }

// File returns the open file, or nil.
func (lr *LineReader) File() *importset.SourceFile { return lr.file }

// Unicode reports whether the open file is Unicode-encoded.
func (lr *LineReader) Unicode() bool { return lr.unicode }

// OpenNext opens the next file whose books intersect the requested range.
// It returns false when the list is exhausted.
func (lr *LineReader) OpenNext() (bool, error) {
	lr.Close()

	for lr.next < len(lr.files) {
		f := lr.files[lr.next]
		lr.next++
		if !f.Covers(lr.start, lr.end) {
			continue
		}

		rc, err := lr.open(f.Path)
		if err != nil {
			return false, errors.NewFile(f.Path, err)
		}
		r, enc, err := encoding.NewSourceReader(rc, f.Encoding)
		if err != nil {
			rc.Close()
			return false, errors.NewFile(f.Path, err)
		}

		lr.file = &f
		lr.closer = rc
		lr.br = bufio.NewReader(r)
		lr.unicode = encoding.IsUnicode(enc)
		lr.lineNo = 0
		lr.havePeeked = false
		logging.SourceOpened(lr.logger, f.Path, enc, lr.domain)
		return true, nil
	}
	return false, nil
}

// ReadLine returns the next logical line of the open file. Lines before the
// first marker are skipped; lines not starting with a backslash after a
// marker are appended to it with a single space; blank lines are ignored.
// At end of file the file is closed and io.EOF returned.
func (lr *LineReader) ReadLine() (logicalLine, error) {
	if !lr.IsOpen() {
		return logicalLine{}, io.EOF
	}

	for {
		text, n, err := lr.physical()
		if err != nil {
			return logicalLine{}, err
		}
		if isBlank(text) || !strings.HasPrefix(text, `\`) {
			continue
		}

		var sb strings.Builder
		sb.WriteString(text)
		for {
			cont, err := lr.peek()
			if err == io.EOF {
				break
			}
			if err != nil {
				return logicalLine{}, err
			}
			if strings.HasPrefix(cont, `\`) {
				break
			}
			lr.havePeeked = false
			if isBlank(cont) {
				continue
			}
			sb.WriteByte(' ')
			sb.WriteString(cont)
		}
		return logicalLine{text: sb.String(), number: n}, nil
	}
}

// physical returns the next physical line, consuming any peeked line.
func (lr *LineReader) physical() (string, int, error) {
	if lr.havePeeked {
		lr.havePeeked = false
		return lr.peeked, lr.peekedNo, nil
	}
	return lr.readRaw()
}

// peek reads the next physical line without consuming it.
func (lr *LineReader) peek() (string, error) {
	if lr.havePeeked {
		return lr.peeked, nil
	}
	text, n, err := lr.readRaw()
	if err != nil {
		return "", err
	}
	lr.peeked, lr.peekedNo, lr.havePeeked = text, n, true
	return text, nil
}

func (lr *LineReader) readRaw() (string, int, error) {
	if lr.br == nil {
		return "", 0, io.EOF
	}
	line, err := lr.br.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		path := lr.file.Path
		lines := lr.lineNo
		lr.Close()
		if err == io.EOF {
			logging.SourceFinished(lr.logger, path, lines)
			return "", 0, io.EOF
		}
		return "", 0, errors.NewFile(path, err)
	}
	lr.lineNo++
	return strings.TrimRight(line, "\r\n"), lr.lineNo, nil
}

// Close closes the open file. It is safe to call repeatedly.
func (lr *LineReader) Close() error {
	if lr.closer == nil {
		return nil
	}
	err := lr.closer.Close()
	lr.closer = nil
	lr.br = nil
	lr.havePeeked = false
	return err
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
