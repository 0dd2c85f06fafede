// Package mapping holds the marker-to-style mapping rules of an import.
package mapping

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/FocuswithJustin/sfimport/core/errors"
)

// Reserved style names recognised by the segment encoder.
const (
	StyleChapterNumber      = "Chapter Number"
	StyleVerseNumber        = "Verse Number"
	StyleDefaultParagraphCh = "Default Paragraph Characters"
)

// StyleKind says whether a mapped style applies to a paragraph or a run.
type StyleKind int

const (
	// StyleNone means the mapping names no usable style.
	StyleNone StyleKind = iota
	StyleParagraph
	StyleCharacter
)

func (k StyleKind) String() string {
	switch k {
	case StyleParagraph:
		return "paragraph"
	case StyleCharacter:
		return "character"
	}
	return "none"
}

// UnmarshalText parses "paragraph", "character" or "none".
func (k *StyleKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "paragraph", "para":
		*k = StyleParagraph
	case "character", "char":
		*k = StyleCharacter
	case "", "none":
		*k = StyleNone
	default:
		return errors.NewValidation("style_kind", fmt.Sprintf("unknown style kind %q", text))
	}
	return nil
}

// Domain flags the text stream a marker's data belongs to. The zero value is
// the default (main text) domain.
type Domain uint8

const (
	DomainDefault   Domain = 0
	DomainBackTrans Domain = 1 << iota
	DomainFootnote
	DomainNote
)

// Has reports whether all flags in f are set.
func (d Domain) Has(f Domain) bool { return f != 0 && d&f == f }

func (d Domain) String() string {
	if d == DomainDefault {
		return "default"
	}
	var parts []string
	if d.Has(DomainBackTrans) {
		parts = append(parts, "backtrans")
	}
	if d.Has(DomainFootnote) {
		parts = append(parts, "footnote")
	}
	if d.Has(DomainNote) {
		parts = append(parts, "note")
	}
	return strings.Join(parts, ",")
}

// UnmarshalText parses a comma or pipe separated list of domain names.
func (d *Domain) UnmarshalText(text []byte) error {
	var out Domain
	fields := strings.FieldsFunc(string(text), func(r rune) bool { return r == ',' || r == '|' || r == ' ' })
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "default", "main", "scripture":
			// zero value
		case "backtrans", "backtranslation", "bt":
			out |= DomainBackTrans
		case "footnote":
			out |= DomainFootnote
		case "note", "notes", "annotation":
			out |= DomainNote
		default:
			return errors.NewValidation("domain", fmt.Sprintf("unknown marker domain %q", f))
		}
	}
	*d = out
	return nil
}

// Mapping maps one begin marker to its style and domain.
type Mapping struct {
	BeginMarker   string    `yaml:"begin" json:"begin"`
	EndMarker     string    `yaml:"end,omitempty" json:"end,omitempty"`
	IsInline      bool      `yaml:"inline,omitempty" json:"inline,omitempty"`
	StyleName     string    `yaml:"style,omitempty" json:"style,omitempty"`
	StyleKind     StyleKind `yaml:"style_kind,omitempty" json:"style_kind,omitempty"`
	Domain        Domain    `yaml:"domain,omitempty" json:"domain,omitempty"`
	WritingSystem string    `yaml:"ws,omitempty" json:"ws,omitempty"`
}

// Table is an ordered, read-only set of mappings keyed by begin marker.
type Table struct {
	mappings []Mapping
	index    map[string]int
	ends     map[string]bool
}

// NewTable validates mappings and indexes them by begin marker.
func NewTable(mappings []Mapping) (*Table, error) {
	t := &Table{
		mappings: slices.Clone(mappings),
		index:    make(map[string]int, len(mappings)),
		ends:     make(map[string]bool),
	}
	for i, m := range t.mappings {
		if !strings.HasPrefix(m.BeginMarker, `\`) || len(m.BeginMarker) < 2 {
			return nil, &errors.ValidationError{Field: "begin", Value: m.BeginMarker, Message: "marker must start with a backslash"}
		}
		if m.EndMarker != "" && !strings.HasPrefix(m.EndMarker, `\`) {
			return nil, &errors.ValidationError{Field: "end", Value: m.EndMarker, Message: "marker must start with a backslash"}
		}
		if _, dup := t.index[m.BeginMarker]; dup {
			return nil, &errors.ValidationError{Field: "begin", Value: m.BeginMarker, Message: "duplicate begin marker " + m.BeginMarker}
		}
		t.index[m.BeginMarker] = i
		if m.IsInline && m.EndMarker != "" {
			t.ends[m.EndMarker] = true
		}
	}
	return t, nil
}

// Lookup returns the mapping for a begin marker.
func (t *Table) Lookup(marker string) (Mapping, bool) {
	if t == nil {
		return Mapping{}, false
	}
	i, ok := t.index[marker]
	if !ok {
		return Mapping{}, false
	}
	return t.mappings[i], true
}

// IsEndMarker reports whether marker closes an inline mapping.
func (t *Table) IsEndMarker(marker string) bool {
	return t != nil && t.ends[marker]
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.mappings)
}

// InlineMarkers returns every inline begin and end marker, longest first, so
// that a marker which prefixes another is never matched early. With
// allBegin set, every begin marker is included whether inline or not.
func (t *Table) InlineMarkers(allBegin bool) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, m := range t.mappings {
		if m.IsInline || allBegin {
			add(m.BeginMarker)
		}
		if m.IsInline {
			add(m.EndMarker)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
