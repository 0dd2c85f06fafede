// Package encoding decodes Standard Format source files and converts text in
// legacy 8-bit encodings to Unicode.
//
// Legacy sources are read byte-for-rune (each byte becomes the rune with the
// same value), so a Converter receives text whose runes are all below 0x100
// and recovers the original bytes before decoding them with the writing
// system's legacy mapping.
package encoding

import (
	"fmt"
	"strings"
	"sync"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Converter converts text from a legacy encoding to Unicode.
type Converter interface {
	// Name identifies the converter in error messages.
	Name() string

	// Convert returns the Unicode form of text.
	Convert(text string) (string, error)
}

// Registry looks up converters by legacy mapping id.
type Registry interface {
	Lookup(mappingID string) (Converter, bool)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc struct {
	ID string
	Fn func(string) (string, error)
}

// Name returns the converter id.
func (f ConverterFunc) Name() string { return f.ID }

// Convert calls the wrapped function.
func (f ConverterFunc) Convert(text string) (string, error) { return f.Fn(text) }

// charmapConverter decodes legacy bytes with an x/text encoding.
type charmapConverter struct {
	name string
	enc  xencoding.Encoding
}

func (c *charmapConverter) Name() string { return c.name }

func (c *charmapConverter) Convert(text string) (string, error) {
	raw, err := legacyBytes(text)
	if err != nil {
		return "", err
	}
	out, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// legacyBytes recovers the source bytes from byte-for-rune text.
func legacyBytes(text string) ([]byte, error) {
	raw := make([]byte, 0, len(text))
	for i, r := range text {
		if r > 0xFF {
			return nil, fmt.Errorf("character %U at offset %d is outside the legacy byte range", r, i)
		}
		raw = append(raw, byte(r))
	}
	return raw, nil
}

// CharmapRegistry resolves mapping ids through the WHATWG encoding index
// (windows-1252, macintosh, iso-8859-7, ...) and any converters registered
// explicitly. Explicit registrations take precedence.
type CharmapRegistry struct {
	mu     sync.RWMutex
	custom map[string]Converter
}

// NewCharmapRegistry creates a registry backed by golang.org/x/text.
func NewCharmapRegistry() *CharmapRegistry {
	return &CharmapRegistry{custom: make(map[string]Converter)}
}

// Register installs a converter under a mapping id.
func (r *CharmapRegistry) Register(mappingID string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[strings.ToLower(mappingID)] = c
}

// Lookup returns the converter for a mapping id.
func (r *CharmapRegistry) Lookup(mappingID string) (Converter, bool) {
	key := strings.ToLower(strings.TrimSpace(mappingID))
	if key == "" {
		return nil, false
	}

	r.mu.RLock()
	c, ok := r.custom[key]
	r.mu.RUnlock()
	if ok {
		return c, true
	}

	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, false
	}
	return &charmapConverter{name: mappingID, enc: enc}, true
}
