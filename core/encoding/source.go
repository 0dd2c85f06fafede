package encoding

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/sfimport/core/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Source file encodings.
const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
	Legacy  = "legacy"
)

const sniffLen = 4096

// IsUnicode reports whether text in the named encoding needs no legacy conversion.
func IsUnicode(enc string) bool {
	switch NormalizeName(enc) {
	case UTF8, UTF16LE, UTF16BE:
		return true
	}
	return false
}

// NormalizeName folds common spellings of the supported encodings.
func NormalizeName(enc string) string {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "utf-8", "utf8":
		return UTF8
	case "utf-16le", "utf16le", "utf-16", "unicode":
		return UTF16LE
	case "utf-16be", "utf16be":
		return UTF16BE
	case "legacy", "8-bit", "ansi", "iso-8859-1", "latin1":
		return Legacy
	case "":
		return ""
	}
	return enc
}

// Sniff guesses the encoding of the buffered input without consuming it.
// A byte-order mark decides; otherwise valid UTF-8 containing non-ASCII
// bytes is UTF-8 and everything else is legacy.
func Sniff(br *bufio.Reader) string {
	head, _ := br.Peek(sniffLen)
	switch {
	case len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF:
		return UTF8
	case len(head) >= 2 && head[0] == 0xFF && head[1] == 0xFE:
		return UTF16LE
	case len(head) >= 2 && head[0] == 0xFE && head[1] == 0xFF:
		return UTF16BE
	}

	nonASCII := false
	for len(head) > 0 {
		if head[0] < utf8.RuneSelf {
			head = head[1:]
			continue
		}
		if !utf8.FullRune(head) {
			break // truncated by the peek window
		}
		r, size := utf8.DecodeRune(head)
		if r == utf8.RuneError && size <= 1 {
			return Legacy
		}
		nonASCII = true
		head = head[size:]
	}
	if nonASCII {
		return UTF8
	}
	return Legacy
}

// NewSourceReader wraps r so that it yields UTF-8 text. enc may be empty to
// sniff the encoding. The returned name is the encoding actually used.
func NewSourceReader(r io.Reader, enc string) (io.Reader, string, error) {
	br := bufio.NewReader(r)
	name := NormalizeName(enc)
	if name == "" {
		name = Sniff(br)
	}

	switch name {
	case UTF8:
		return transform.NewReader(br, unicode.UTF8BOM.NewDecoder()), name, nil
	case UTF16LE:
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), name, nil
	case UTF16BE:
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), name, nil
	case Legacy:
		return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), name, nil
	}
	return nil, "", errors.NewUnsupported("source encoding", enc)
}
