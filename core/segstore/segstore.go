// Package segstore persists segment streams to SQLite and fingerprints them.
//
// Each import runs in one transaction under a fresh session id. The BLAKE3
// digest of the stream is stored with the session so that two imports of
// the same sources can be compared without diffing rows.
package segstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sfimport/core/sfm"
	"github.com/FocuswithJustin/sfimport/core/sqlite"
	"github.com/FocuswithJustin/sfimport/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	segments   INTEGER NOT NULL,
	digest     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS segments (
	session       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	domain        TEXT NOT NULL,
	marker        TEXT NOT NULL,
	text          TEXT NOT NULL,
	literal_verse TEXT NOT NULL,
	start_ref     TEXT NOT NULL,
	end_ref       TEXT NOT NULL,
	source_file   TEXT NOT NULL,
	line          INTEGER NOT NULL,
	note_type     TEXT NOT NULL,
	PRIMARY KEY (session, seq)
);`

// Source yields segments until io.EOF. *sfm.Stream and *sfm.Enumerator
// satisfy it.
type Source interface {
	Next() (*sfm.TextSegment, error)
}

// Session describes one stored import.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Segments  int       `json:"segments"`
	Digest    string    `json:"digest"`
}

// Row is a stored segment.
type Row struct {
	Seq          int    `json:"seq"`
	Domain       string `json:"domain"`
	Marker       string `json:"marker"`
	Text         string `json:"text"`
	LiteralVerse string `json:"literal_verse,omitempty"`
	StartRef     string `json:"start_ref"`
	EndRef       string `json:"end_ref"`
	SourceFile   string `json:"source_file"`
	Line         int    `json:"line"`
	NoteType     string `json:"note_type,omitempty"`
}

// Store is a segment database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create segment schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import drains src into a new session. Nothing is stored if src fails.
func (s *Store) Import(ctx context.Context, src Source) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	ctx = logging.WithSessionID(ctx, sess.ID)
	start := time.Now()

	err := sqlite.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, created_at, segments, digest) VALUES (?, ?, 0, '')`,
			sess.ID, sess.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO segments (
			session, seq, domain, marker, text, literal_verse,
			start_ref, end_ref, source_file, line, note_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare segment insert: %w", err)
		}
		defer stmt.Close()

		d := newDigester()
		for {
			seg, err := src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := d.add(seg); err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				sess.ID, sess.Segments, seg.Domain.String(), seg.Marker, seg.Text, seg.LiteralVerse,
				seg.FirstRef.String(), seg.LastRef.String(), seg.SourceFile, seg.Line, seg.NoteType,
			); err != nil {
				return fmt.Errorf("insert segment %d: %w", sess.Segments, err)
			}
			sess.Segments++
		}
		sess.Digest = d.sum()

		_, err = tx.ExecContext(ctx, `UPDATE sessions SET segments = ?, digest = ? WHERE id = ?`,
			sess.Segments, sess.Digest, sess.ID)
		return err
	})
	if err != nil {
		logging.ErrorContext(ctx, "import failed", "error", err)
		return nil, err
	}

	logging.ImportFinished(ctx, sess.Segments, time.Since(start), "digest", sess.Digest)
	return sess, nil
}

// Sessions lists stored sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, segments, digest FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess    Session
			created string
		)
		if err := rows.Scan(&sess.ID, &created, &sess.Segments, &sess.Digest); err != nil {
			return nil, err
		}
		sess.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", sess.ID, err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Segments returns the stored segments of a session in import order.
func (s *Store) Segments(ctx context.Context, sessionID string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, domain, marker, text, literal_verse,
		start_ref, end_ref, source_file, line, note_type
		FROM segments WHERE session = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Seq, &r.Domain, &r.Marker, &r.Text, &r.LiteralVerse,
			&r.StartRef, &r.EndRef, &r.SourceFile, &r.Line, &r.NoteType); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Digest drains src and returns the hex BLAKE3 digest of its segments and
// the number of segments read.
func Digest(src Source) (string, int, error) {
	d := newDigester()
	for {
		seg, err := src.Next()
		if err == io.EOF {
			return d.sum(), d.n, nil
		}
		if err != nil {
			return "", d.n, err
		}
		if err := d.add(seg); err != nil {
			return "", d.n, err
		}
	}
}

// digester hashes the JSON lines form of each segment.
type digester struct {
	h   hash.Hash
	enc *json.Encoder
	n   int
}

func newDigester() *digester {
	h := blake3.New()
	return &digester{h: h, enc: json.NewEncoder(h)}
}

func (d *digester) add(seg *sfm.TextSegment) error {
	d.n++
	return d.enc.Encode(seg)
}

func (d *digester) sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
