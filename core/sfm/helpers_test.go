package sfm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sfimport/core/encoding"
	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/core/mapping"
)

var errSimulated = errors.New("simulated read failure")

// memFS serves source files from memory and records how they are opened
// and closed.
type memFS struct {
	files  map[string]string
	failAt map[string]int
	open   map[string]bool
	opens  map[string]int
	closes map[string]int
}

func newMemFS(files map[string]string) *memFS {
	return &memFS{
		files:  files,
		failAt: make(map[string]int),
		open:   make(map[string]bool),
		opens:  make(map[string]int),
		closes: make(map[string]int),
	}
}

func (m *memFS) Open(path string) (io.ReadCloser, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	if m.open[path] {
		return nil, fmt.Errorf("%s is already open", path)
	}
	m.open[path] = true
	m.opens[path]++
	limit, fail := m.failAt[path]
	if !fail {
		limit = -1
	}
	return &memFile{r: strings.NewReader(data), fs: m, path: path, limit: limit}, nil
}

type memFile struct {
	r     *strings.Reader
	fs    *memFS
	path  string
	limit int // bytes readable before failing, -1 for no failure
	read  int
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.limit >= 0 {
		remaining := f.limit - f.read
		if remaining <= 0 {
			return 0, errSimulated
		}
		if len(p) > remaining {
			p = p[:remaining]
		}
	}
	n, err := f.r.Read(p)
	f.read += n
	return n, err
}

func (f *memFile) Close() error {
	if !f.fs.open[f.path] {
		return fmt.Errorf("%s closed twice", f.path)
	}
	f.fs.open[f.path] = false
	f.fs.closes[f.path]++
	return nil
}

var testMappings = []mapping.Mapping{
	{BeginMarker: `\p`, StyleName: "Paragraph", StyleKind: mapping.StyleParagraph},
	{BeginMarker: `\q`, StyleName: "Poetry", StyleKind: mapping.StyleParagraph, WritingSystem: "xb"},
	{BeginMarker: `\v`, StyleName: mapping.StyleVerseNumber, StyleKind: mapping.StyleCharacter},
	{BeginMarker: `\c`, StyleName: mapping.StyleChapterNumber, StyleKind: mapping.StyleCharacter},
	{BeginMarker: `\qt`, EndMarker: `\qt*`, IsInline: true, StyleName: "Quoted Text", StyleKind: mapping.StyleCharacter},
	{BeginMarker: `\f`, EndMarker: `\f*`, IsInline: true, StyleName: "Note General Paragraph", StyleKind: mapping.StyleParagraph, Domain: mapping.DomainFootnote},
}

func testSettings(typ importset.ImportType, files ...importset.SourceFile) *importset.Settings {
	return &importset.Settings{
		ImportType:   typ,
		VernacularWS: "vern",
		AnalysisWS:   "en",
		WritingSystems: []importset.WritingSystem{
			{ID: "vern", LegacyMapping: "upper"},
			{ID: "xb", LegacyMapping: "tagb"},
			{ID: "en"},
		},
		Scripture: importset.DomainSettings{Files: files, Mappings: testMappings},
	}
}

func testRegistry() *encoding.CharmapRegistry {
	r := encoding.NewCharmapRegistry()
	r.Register("upper", encoding.ConverterFunc{ID: "upper", Fn: func(s string) (string, error) {
		return strings.ToUpper(s), nil
	}})
	r.Register("tagb", encoding.ConverterFunc{ID: "tagb", Fn: func(s string) (string, error) {
		return "B:" + s, nil
	}})
	r.Register("broken", encoding.ConverterFunc{ID: "broken", Fn: func(s string) (string, error) {
		return "", errors.New("unmappable byte")
	}})
	return r
}

func testTable(t testing.TB) *mapping.Table {
	t.Helper()
	table, err := mapping.NewTable(testMappings)
	if err != nil {
		t.Fatalf("NewTable() error: %v", err)
	}
	return table
}

func testConfig(m *memFS) Config {
	return Config{
		Registry: testRegistry(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Opener:   m.Open,
	}
}

func books(codes ...int) []importset.BookNum {
	out := make([]importset.BookNum, len(codes))
	for i, c := range codes {
		out[i] = importset.BookNum(c)
	}
	return out
}

func collect(t *testing.T, next func() (*TextSegment, error)) []*TextSegment {
	t.Helper()
	var segs []*TextSegment
	for seg, err := range seq(next) {
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		segs = append(segs, seg)
	}
	return segs
}

type wantSeg struct {
	marker string
	text   string
}

func checkSegments(t *testing.T, got []*TextSegment, want []wantSeg) {
	t.Helper()
	if len(got) != len(want) {
		for _, s := range got {
			t.Logf("  %s %q", s.Marker, s.Text)
		}
		t.Fatalf("got %d segments, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Marker != w.marker || got[i].Text != w.text {
			t.Errorf("segment %d = %s %q, want %s %q", i, got[i].Marker, got[i].Text, w.marker, w.text)
		}
	}
}
