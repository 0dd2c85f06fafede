package sfm

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	sferrors "github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/core/ref"
)

const matthew = `\id MAT Matthew
\c 1
\p Hello \qt world\qt* there
\v 3-5 Blessed are
the poor
`

func TestEnumeratorSegments(t *testing.T) {
	m := newMemFS(map[string]string{"MAT.sfm": matthew})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	segs := collect(t, e.Next)
	checkSegments(t, segs, []wantSeg{
		{`\id`, "MAT Matthew"},
		{`\c`, ""},
		{`\p`, "Hello "},
		{`\qt`, "world"},
		{`\p`, " there"},
		{`\v`, "Blessed are the poor"},
	})

	if got := segs[0].FirstRef; got != ref.New(40, 1, 0) {
		t.Errorf("book ref = %v", got)
	}
	if got := segs[2].FirstRef; got != ref.New(40, 1, 1) {
		t.Errorf("paragraph ref = %v, want MAT 1:1", got)
	}

	verse := segs[5]
	if verse.FirstRef.Verse != 3 || verse.LastRef.Verse != 5 {
		t.Errorf("verse refs = %v - %v, want 3-5", verse.FirstRef, verse.LastRef)
	}
	if verse.LiteralVerse != "3-5" {
		t.Errorf("LiteralVerse = %q, want 3-5", verse.LiteralVerse)
	}
	if verse.Line != 4 {
		t.Errorf("Line = %d, want 4", verse.Line)
	}
	if verse.SourceFile != "MAT.sfm" || verse.Domain != importset.DomainMain {
		t.Errorf("segment origin = %s/%v", verse.SourceFile, verse.Domain)
	}

	if m.open["MAT.sfm"] {
		t.Error("file left open after io.EOF")
	}
	if _, err := e.Next(); err != io.EOF {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestEnumeratorBookRange(t *testing.T) {
	m := newMemFS(map[string]string{
		"GEN.sfm":   "\\id GEN\n\\p in the beginning\n",
		"MAT.sfm":   "stray text\n\\rem before id\n\\id MAT\n\\p mat text\n",
		"MULTI.sfm": "\\id MRK\n\\p mark\n\\id LUK\n\\p luke\n",
	})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "GEN.sfm", Encoding: "utf-8", Books: books(1)},
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)},
		importset.SourceFile{Path: "MULTI.sfm", Encoding: "utf-8", Books: books(41, 42)},
	)
	cfg := testConfig(m)
	cfg.StartBook, cfg.EndBook = 40, 41

	e, err := NewEnumerator(s, importset.DomainMain, cfg)
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	segs := collect(t, e.Next)
	checkSegments(t, segs, []wantSeg{
		{`\id`, "MAT"},
		{`\p`, "mat text"},
		{`\id`, "MRK"},
		{`\p`, "mark"},
	})
	for _, seg := range segs {
		if seg.FirstRef.Book < 40 || seg.FirstRef.Book > 41 {
			t.Errorf("segment %q outside requested books: %v", seg.Text, seg.FirstRef)
		}
	}
	if m.opens["GEN.sfm"] != 0 {
		t.Error("file outside the requested books was opened")
	}
}

func TestEnumeratorUnknownBook(t *testing.T) {
	var logs bytes.Buffer
	m := newMemFS(map[string]string{"X.sfm": "\\id XYZ\n\\p hidden\n\\id MAT\n\\p shown\n"})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "X.sfm", Encoding: "utf-8", Books: books(40)})
	cfg := testConfig(m)
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	e, err := NewEnumerator(s, importset.DomainMain, cfg)
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	checkSegments(t, collect(t, e.Next), []wantSeg{
		{`\id`, "MAT"},
		{`\p`, "shown"},
	})
	if !strings.Contains(logs.String(), "unrecognized book code") {
		t.Errorf("expected a warning for the unknown book, got %q", logs.String())
	}
}

func TestEnumeratorUnknownBookAfterKnown(t *testing.T) {
	m := newMemFS(map[string]string{"X.sfm": "\\id MAT\n\\c 1\n\\v 1 matthew\n" +
		"\\id XYZ\n\\c 1\n\\v 1 stray\n" +
		"\\id Song of Solomon\n\\c 2\n\\v 2-3text\n"})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "X.sfm", Encoding: "utf-8", Books: books(22, 40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	segs := collect(t, e.Next)
	checkSegments(t, segs, []wantSeg{
		{`\id`, "MAT"}, {`\c`, ""}, {`\v`, "matthew"},
		{`\id`, "Song of Solomon"}, {`\c`, ""}, {`\v`, "text"},
	})
	if got := segs[2].FirstRef; got != ref.New(40, 1, 1) {
		t.Errorf("matthew ref = %v, want MAT 1:1", got)
	}
	verse := segs[5]
	if verse.FirstRef != ref.New(22, 2, 2) || verse.LastRef != ref.New(22, 2, 3) {
		t.Errorf("verse refs = %v - %v, want SNG 2:2-3", verse.FirstRef, verse.LastRef)
	}
	if verse.LiteralVerse != "2-3" {
		t.Errorf("LiteralVerse = %q, want 2-3", verse.LiteralVerse)
	}
}

func TestEnumeratorEncodingInheritance(t *testing.T) {
	m := newMemFS(map[string]string{
		"MAT.sfm": "\\id MAT\n\\p abc\n\\zz def\n\\q ghi\n\\zz jkl\n",
	})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "legacy", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	checkSegments(t, collect(t, e.Next), []wantSeg{
		{`\id`, "MAT"},
		{`\p`, "ABC"},
		{`\zz`, "DEF"},
		{`\q`, "B:ghi"},
		{`\zz`, "B:jkl"},
	})
}

func TestEnumeratorUnicodeSkipsConversion(t *testing.T) {
	m := newMemFS(map[string]string{"MAT.sfm": "\\id MAT\n\\p abc\n"})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	checkSegments(t, collect(t, e.Next), []wantSeg{{`\id`, "MAT"}, {`\p`, "abc"}})
}

func TestEnumeratorBackTranslationWritingSystem(t *testing.T) {
	m := newMemFS(map[string]string{"bt.sfm": "\\id MAT\n\\p back\n"})
	s := testSettings(importset.TypeStandardFormat)
	s.WritingSystems = append(s.WritingSystems, importset.WritingSystem{ID: "frx", LegacyMapping: "tagb"})
	s.BackTranslation.Files = []importset.SourceFile{
		{Path: "bt.sfm", Encoding: "legacy", Books: books(40), WritingSystem: "frx"},
	}

	e, err := NewEnumerator(s, importset.DomainBackTrans, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	segs := collect(t, e.Next)
	checkSegments(t, segs, []wantSeg{{`\id`, "MAT"}, {`\p`, "B:back"}})
	if segs[1].Domain != importset.DomainBackTrans {
		t.Errorf("Domain = %v, want back translation", segs[1].Domain)
	}
}

func TestEnumeratorParatext5(t *testing.T) {
	m := newMemFS(map[string]string{
		"MAT.sfm": "\\id MAT\n\\c 2\n\\v 1 first \\v 2 second\n\\p x\\qt y\\qt*z\n",
	})
	s := testSettings(importset.TypeParatext5,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	segs := collect(t, e.Next)
	checkSegments(t, segs, []wantSeg{
		{`\id`, "MAT"},
		{`\c`, ""},
		{`\v`, "first "},
		{`\v`, "second"},
		{`\p`, "x"},
		{`\qt`, "y"},
		{`\p`, "z"},
	})
	if segs[2].LiteralVerse != "1" || segs[2].FirstRef != ref.New(40, 2, 1) {
		t.Errorf("first verse = %q %v", segs[2].LiteralVerse, segs[2].FirstRef)
	}
	if segs[3].LiteralVerse != "2" || segs[3].FirstRef != ref.New(40, 2, 2) {
		t.Errorf("inline verse = %q %v", segs[3].LiteralVerse, segs[3].FirstRef)
	}
}

func TestEnumeratorCloseTwice(t *testing.T) {
	m := newMemFS(map[string]string{"MAT.sfm": matthew})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	if _, err := e.Next(); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if !m.open["MAT.sfm"] {
		t.Fatal("file should be open mid-enumeration")
	}

	if err := e.Close(); err != nil {
		t.Errorf("first Close() = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if m.closes["MAT.sfm"] != 1 {
		t.Errorf("file closed %d times, want 1", m.closes["MAT.sfm"])
	}
	if _, err := e.Next(); err != io.EOF {
		t.Errorf("Next() after Close = %v, want io.EOF", err)
	}
}

func TestEnumeratorReadFailureClosesFile(t *testing.T) {
	const text = "\\id MAT\n\\p one\n\\p two\n\\p three\n"
	m := newMemFS(map[string]string{"MAT.sfm": text})
	m.failAt["MAT.sfm"] = len("\\id MAT\n\\p one\n")
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	var gotErr error
	for _, err := range e.All() {
		if err != nil {
			gotErr = err
		}
	}
	if !errors.Is(gotErr, sferrors.ErrFile) {
		t.Fatalf("error = %v, want a file error", gotErr)
	}
	if !errors.Is(gotErr, errSimulated) {
		t.Errorf("error = %v, want the read failure as cause", gotErr)
	}
	if m.open["MAT.sfm"] {
		t.Error("file still open after read failure")
	}

	delete(m.failAt, "MAT.sfm")
	rc, err := m.Open("MAT.sfm")
	if err != nil {
		t.Fatalf("reopen after failure: %v", err)
	}
	rc.Close()
}

func TestEnumeratorOpenFailure(t *testing.T) {
	m := newMemFS(map[string]string{})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "missing.sfm", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	_, err = e.Next()
	var fe *sferrors.FileError
	if !errors.As(err, &fe) || fe.Path != "missing.sfm" {
		t.Errorf("Next() = %v, want FileError for missing.sfm", err)
	}
}

func TestEnumeratorFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		typ     importset.ImportType
		text    string
		enc     string
		vernMap string
		check   func(t *testing.T, err error)
	}{
		{
			name: "invalid chapter",
			text: "\\id MAT\n\\c x\n",
			check: func(t *testing.T, err error) {
				var ce *sferrors.InvalidChapterError
				if !errors.As(err, &ce) {
					t.Fatalf("error = %v, want InvalidChapterError", err)
				}
				if ce.ChapterText != "x" || ce.Book != "MAT" || ce.Line != 2 {
					t.Errorf("error = %+v", ce)
				}
			},
		},
		{
			name: "invalid paratext marker",
			typ:  importset.TypeParatext6,
			text: "\\id MAT\n\\v\u20ac 1 text\n",
			check: func(t *testing.T, err error) {
				var me *sferrors.InvalidMarkerError
				if !errors.As(err, &me) {
					t.Fatalf("error = %v, want InvalidMarkerError", err)
				}
				if me.Reference != "MAT 1:0" {
					t.Errorf("Reference = %q", me.Reference)
				}
			},
		},
		{
			name:    "converter missing",
			text:    "\\id MAT\n\\p text\n",
			enc:     "legacy",
			vernMap: "no-such-mapping",
			check: func(t *testing.T, err error) {
				var me *sferrors.ConverterMissingError
				if !errors.As(err, &me) {
					t.Fatalf("error = %v, want ConverterMissingError", err)
				}
				if me.MappingID != "no-such-mapping" || me.Marker != `\p` || me.Line != 2 {
					t.Errorf("error = %+v", me)
				}
			},
		},
		{
			name:    "conversion failure",
			text:    "\\id MAT\n\\p text\n",
			enc:     "legacy",
			vernMap: "broken",
			check: func(t *testing.T, err error) {
				var ce *sferrors.ConversionError
				if !errors.As(err, &ce) || ce.Converter != "broken" {
					t.Fatalf("error = %v, want ConversionError from broken", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := tt.enc
			if enc == "" {
				enc = "utf-8"
			}
			m := newMemFS(map[string]string{"MAT.sfm": tt.text})
			s := testSettings(tt.typ, importset.SourceFile{Path: "MAT.sfm", Encoding: enc, Books: books(40)})
			if tt.vernMap != "" {
				s.WritingSystems[0].LegacyMapping = tt.vernMap
			}

			e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
			if err != nil {
				t.Fatalf("NewEnumerator() error: %v", err)
			}
			defer e.Close()

			var gotErr error
			for _, err := range e.All() {
				gotErr = err
			}
			tt.check(t, gotErr)
			if m.open["MAT.sfm"] {
				t.Error("file still open after fatal error")
			}
		})
	}
}

func TestStandardFormatAcceptsAnyMarker(t *testing.T) {
	m := newMemFS(map[string]string{"MAT.sfm": "\\id MAT\n\\v\u20ac text\n"})
	s := testSettings(importset.TypeStandardFormat,
		importset.SourceFile{Path: "MAT.sfm", Encoding: "utf-8", Books: books(40)})

	e, err := NewEnumerator(s, importset.DomainMain, testConfig(m))
	if err != nil {
		t.Fatalf("NewEnumerator() error: %v", err)
	}
	defer e.Close()

	checkSegments(t, collect(t, e.Next), []wantSeg{{`\id`, "MAT"}, {"\\v\u20ac", "text"}})
}

func TestNewEnumeratorValidation(t *testing.T) {
	if _, err := NewEnumerator(nil, importset.DomainMain, Config{}); !errors.Is(err, sferrors.ErrInvalidInput) {
		t.Errorf("nil settings: error = %v", err)
	}

	s := testSettings(importset.TypeStandardFormat)
	if _, err := NewEnumerator(s, importset.DomainMain, Config{StartBook: 50, EndBook: 40}); !errors.Is(err, sferrors.ErrInvalidInput) {
		t.Errorf("reversed range: error = %v", err)
	}
}

func TestSplitMarker(t *testing.T) {
	tests := []struct {
		line, marker, content string
	}{
		{`\p text`, `\p`, "text"},
		{`\p  two spaces`, `\p`, " two spaces"},
		{`\p`, `\p`, ""},
		{`\p\v 1`, `\p`, `\v 1`},
		{"\\v\t3 x", `\v`, "3 x"},
		{`\qt* tail`, `\qt*`, "tail"},
	}
	for _, tt := range tests {
		marker, content := splitMarker(tt.line)
		if marker != tt.marker || content != tt.content {
			t.Errorf("splitMarker(%q) = %q, %q; want %q, %q", tt.line, marker, content, tt.marker, tt.content)
		}
	}
}

func TestValidMarker(t *testing.T) {
	for _, m := range []string{`\p`, `\qt*`, `\+nd`, `\x_y`, `\s-1`, `\v2`} {
		if !validMarker(m) {
			t.Errorf("validMarker(%q) = false", m)
		}
	}
	for _, m := range []string{`\`, "\\v\u20ac", `\p.`, `p`} {
		if validMarker(m) {
			t.Errorf("validMarker(%q) = true", m)
		}
	}
}
