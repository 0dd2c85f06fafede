// Command sfimport segments Standard Format scripture files and prints,
// fingerprints or stores the resulting segments.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/sfimport/core/importset"
	"github.com/FocuswithJustin/sfimport/core/ref"
	"github.com/FocuswithJustin/sfimport/core/segstore"
	"github.com/FocuswithJustin/sfimport/core/sfm"
	"github.com/FocuswithJustin/sfimport/core/sqlite"
	"github.com/FocuswithJustin/sfimport/internal/logging"
	"github.com/FocuswithJustin/sfimport/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	LogLevel  string `name:"log-level" help:"Log level" default:"warn" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format" default:"text" enum:"text,json"`

	Segments SegmentsCmd `cmd:"" help:"Print the segments of an import"`
	Store    StoreCmd    `cmd:"" help:"Store the segments of an import in SQLite"`
	Sessions SessionsCmd `cmd:"" help:"List the imports stored in a database"`
	Digest   DigestCmd   `cmd:"" help:"Print the BLAKE3 digest of an import"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// Globals is bound into every command's Run.
type Globals struct {
	Ctx context.Context
	Out io.Writer
}

// ImportFlags select the settings and book range of an import.
type ImportFlags struct {
	Settings string `required:"" short:"s" help:"Import settings (YAML)" type:"existingfile"`
	Start    string `help:"First book to import (code or number)" default:"GEN"`
	End      string `help:"Last book to import (code or number)" default:"REV"`
}

func (f *ImportFlags) stream() (*sfm.Stream, error) {
	settings, err := importset.Load(f.Settings)
	if err != nil {
		return nil, err
	}
	var start, end importset.BookNum
	if err := start.UnmarshalText([]byte(f.Start)); err != nil {
		return nil, err
	}
	if err := end.UnmarshalText([]byte(f.End)); err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("start book %s is after end book %s", f.Start, f.End)
	}
	return sfm.NewStream(settings, sfm.Config{StartBook: int(start), EndBook: int(end)}), nil
}

// SegmentsCmd prints segments.
type SegmentsCmd struct {
	ImportFlags `embed:""`
	JSON bool `help:"Write one JSON object per segment"`
}

func (c *SegmentsCmd) Run(g *Globals) error {
	st, err := c.stream()
	if err != nil {
		return err
	}
	defer st.Close()

	enc := json.NewEncoder(g.Out)
	enc.SetEscapeHTML(false)
	for seg, err := range st.All() {
		if err != nil {
			return err
		}
		if c.JSON {
			if err := enc.Encode(seg); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(g.Out, "%s\t%s\t%s\t%s\n", refSpan(seg.FirstRef, seg.LastRef), seg.Domain, seg.Marker, seg.Text)
	}
	return nil
}

func refSpan(first, last ref.BCVRef) string {
	if first == last {
		return first.String()
	}
	s := last.String()
	return first.String() + "-" + s[strings.LastIndexByte(s, ' ')+1:]
}

// StoreCmd imports into a segment database.
type StoreCmd struct {
	ImportFlags `embed:""`
	DB string `required:"" name:"db" help:"SQLite database path" type:"path"`
}

func (c *StoreCmd) Run(g *Globals) error {
	if err := validation.ValidatePath(c.DB); err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	st, err := c.stream()
	if err != nil {
		return err
	}
	defer st.Close()

	store, err := segstore.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Import(g.Ctx, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "session %s: %d segments, digest %s\n", sess.ID, sess.Segments, sess.Digest)
	return nil
}

// SessionsCmd lists stored imports.
type SessionsCmd struct {
	DB string `required:"" name:"db" help:"SQLite database path" type:"existingfile"`
}

func (c *SessionsCmd) Run(g *Globals) error {
	store, err := segstore.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(g.Ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintf(g.Out, "%s\t%s\t%d\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Segments, s.Digest)
	}
	return nil
}

// DigestCmd prints the digest of an import without storing it.
type DigestCmd struct {
	ImportFlags `embed:""`
}

func (c *DigestCmd) Run(g *Globals) error {
	st, err := c.stream()
	if err != nil {
		return err
	}
	defer st.Close()

	start := time.Now()
	digest, n, err := segstore.Digest(st)
	if err != nil {
		return err
	}
	logging.ImportFinished(g.Ctx, n, time.Since(start))
	fmt.Fprintf(g.Out, "%s  %d segments\n", digest, n)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(g.Out, "sfimport %s (sqlite %s, %s)\n", version, info.DriverType, info.Package)
	return nil
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sfimport"),
		kong.Description("Standard Format scripture segmenter"),
		kong.UsageOnError(),
		kong.Writers(out, errOut),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logging.InitLoggerTo(errOut, logging.ParseLevel(cli.LogLevel), logging.ParseFormat(cli.LogFormat))
	return kctx.Run(&Globals{Ctx: ctx, Out: out})
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "sfimport:", err)
		os.Exit(1)
	}
}
