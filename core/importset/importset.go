// Package importset describes what one Standard Format import reads: the
// import type, the source files of each domain, the marker mappings and
// the writing systems used to pick encoding converters.
package importset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/sfimport/core/encoding"
	"github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/FocuswithJustin/sfimport/core/mapping"
	"github.com/FocuswithJustin/sfimport/core/ref"
	"github.com/FocuswithJustin/sfimport/internal/validation"
)

// ImportType selects format-specific marker handling.
type ImportType int

const (
	// TypeStandardFormat is generic Standard Format / USFM.
	TypeStandardFormat ImportType = iota
	// TypeParatext6 is a Paratext 6 project.
	TypeParatext6
	// TypeParatext5 is a Paratext 5 project: any begin marker may occur
	// mid-line and begin markers carry no trailing separator.
	TypeParatext5
)

func (t ImportType) String() string {
	switch t {
	case TypeParatext6:
		return "paratext6"
	case TypeParatext5:
		return "paratext5"
	}
	return "standard"
}

// IsParatext reports whether the import reads a Paratext project.
func (t ImportType) IsParatext() bool {
	return t == TypeParatext5 || t == TypeParatext6
}

// UnmarshalText parses the names produced by String.
func (t *ImportType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "standard", "sf", "other":
		*t = TypeStandardFormat
	case "paratext6", "paratext", "pt6":
		*t = TypeParatext6
	case "paratext5", "pt5":
		*t = TypeParatext5
	default:
		return errors.NewValidation("import_type", fmt.Sprintf("unknown import type %q", text))
	}
	return nil
}

// Domain is one of the parallel text streams of an import.
type Domain int

const (
	DomainMain Domain = iota
	DomainBackTrans
	DomainNotes
)

// Domains lists the import domains in processing order.
var Domains = []Domain{DomainMain, DomainBackTrans, DomainNotes}

func (d Domain) String() string {
	switch d {
	case DomainBackTrans:
		return "backtrans"
	case DomainNotes:
		return "notes"
	}
	return "main"
}

// BookNum is a canonical book number that reads from YAML as either a
// number or a book code.
type BookNum int

// UnmarshalText accepts "40", "MAT" or "Matthew".
func (b *BookNum) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= ref.BookCount {
		*b = BookNum(n)
		return nil
	}
	if n, ok := ref.BookNumber(s); ok {
		*b = BookNum(n)
		return nil
	}
	return errors.NewValidation("books", fmt.Sprintf("unknown book %q", s))
}

// SourceFile is one input file of a domain.
type SourceFile struct {
	Path string `yaml:"path"`
	// Encoding is utf-8, utf-16le, utf-16be or legacy; empty sniffs the file.
	Encoding string    `yaml:"encoding,omitempty"`
	Books    []BookNum `yaml:"books"`
	// WritingSystem overrides the analysis writing system for back
	// translation and note files.
	WritingSystem string `yaml:"ws,omitempty"`
	NoteType      string `yaml:"note_type,omitempty"`
}

// Covers reports whether the file declares a book within [start, end].
func (f SourceFile) Covers(start, end int) bool {
	for _, b := range f.Books {
		if int(b) >= start && int(b) <= end {
			return true
		}
	}
	return false
}

// WritingSystem ties a writing system id to its legacy mapping. An empty
// LegacyMapping means the writing system's data is already Unicode.
type WritingSystem struct {
	ID            string `yaml:"id"`
	LegacyMapping string `yaml:"legacy_mapping,omitempty"`
}

// DomainSettings holds the files and mappings of one domain.
type DomainSettings struct {
	Files    []SourceFile      `yaml:"files"`
	Mappings []mapping.Mapping `yaml:"mappings,omitempty"`
	// MappingFile names an XML mapping list used instead of Mappings.
	MappingFile string `yaml:"mapping_file,omitempty"`
}

// Settings is the complete description of an import.
type Settings struct {
	ImportType      ImportType      `yaml:"import_type"`
	VernacularWS    string          `yaml:"vernacular_ws"`
	AnalysisWS      string          `yaml:"analysis_ws"`
	WritingSystems  []WritingSystem `yaml:"writing_systems,omitempty"`
	Scripture       DomainSettings  `yaml:"scripture"`
	BackTranslation DomainSettings  `yaml:"back_translation,omitempty"`
	Notes           DomainSettings  `yaml:"notes,omitempty"`

	tables map[Domain]*mapping.Table
}

// Load reads settings from a YAML file. Relative paths inside the file are
// resolved against the file's directory.
func Load(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFile(path, err)
	}
	defer f.Close()

	s, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	s.resolvePaths(filepath.Dir(path))
	return s, nil
}

// Parse decodes and validates YAML settings.
func Parse(r io.Reader, path string) (*Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, &errors.ParseError{Format: "YAML", Path: path, Message: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) resolvePaths(dir string) {
	for _, ds := range []*DomainSettings{&s.Scripture, &s.BackTranslation, &s.Notes} {
		for i := range ds.Files {
			if !filepath.IsAbs(ds.Files[i].Path) {
				ds.Files[i].Path = filepath.Join(dir, ds.Files[i].Path)
			}
		}
		if ds.MappingFile != "" && !filepath.IsAbs(ds.MappingFile) {
			ds.MappingFile = filepath.Join(dir, ds.MappingFile)
		}
	}
}

// Validate checks the settings for missing or inconsistent values.
func (s *Settings) Validate() error {
	if s.VernacularWS == "" {
		return errors.NewValidation("vernacular_ws", "a vernacular writing system is required")
	}
	if s.AnalysisWS == "" {
		return errors.NewValidation("analysis_ws", "an analysis writing system is required")
	}
	for _, d := range Domains {
		for _, f := range s.domain(d).Files {
			if f.Path == "" {
				return errors.NewValidation("path", fmt.Sprintf("%s file without a path", d))
			}
			if err := validation.ValidatePath(f.Path); err != nil {
				return &errors.ValidationError{Field: "path", Value: f.Path, Message: err.Error()}
			}
			if len(f.Books) == 0 {
				return &errors.ValidationError{Field: "books", Value: f.Path, Message: "file declares no books"}
			}
			switch encoding.NormalizeName(f.Encoding) {
			case "", encoding.UTF8, encoding.UTF16LE, encoding.UTF16BE, encoding.Legacy:
			default:
				return &errors.ValidationError{Field: "encoding", Value: f.Encoding, Message: "unsupported source encoding"}
			}
		}
	}
	return nil
}

func (s *Settings) domain(d Domain) *DomainSettings {
	switch d {
	case DomainBackTrans:
		return &s.BackTranslation
	case DomainNotes:
		return &s.Notes
	}
	return &s.Scripture
}

// Files returns the source files of a domain in import order.
func (s *Settings) Files(d Domain) []SourceFile {
	return s.domain(d).Files
}

// Table returns the marker table of a domain. A back-translation domain
// without its own mappings shares the scripture mappings.
func (s *Settings) Table(d Domain) (*mapping.Table, error) {
	if t, ok := s.tables[d]; ok {
		return t, nil
	}

	ds := s.domain(d)
	if d == DomainBackTrans && len(ds.Mappings) == 0 && ds.MappingFile == "" {
		ds = &s.Scripture
	}

	var (
		t   *mapping.Table
		err error
	)
	if ds.MappingFile != "" {
		t, err = loadMappingFile(ds.MappingFile)
	} else {
		t, err = mapping.NewTable(ds.Mappings)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s mappings", d)
	}

	if s.tables == nil {
		s.tables = make(map[Domain]*mapping.Table)
	}
	s.tables[d] = t
	return t, nil
}

func loadMappingFile(path string) (*mapping.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFile(path, err)
	}
	defer f.Close()
	return mapping.LoadXML(f, path)
}

// LegacyMapping returns the legacy mapping id of a writing system, or ""
// when it has none.
func (s *Settings) LegacyMapping(ws string) string {
	for _, w := range s.WritingSystems {
		if w.ID == ws {
			return w.LegacyMapping
		}
	}
	return ""
}

// MarshalText renders the domain name, so segments serialise readably.
func (d Domain) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
