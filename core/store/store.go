// Package store keeps matched programs in SQLite, one row per artist and
// program, until their retention runs out.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/gaurav-prasanna/radiopipe/core"
)

// DefaultCollection names the top-level partition matches are filed under.
const DefaultCollection = "hello-radiko-data/programs"

// Store persists matches.
type Store struct {
	db         *sql.DB
	collection string
	now        func() time.Time
}

// Entry is one stored match.
type Entry struct {
	Artist    string             `json:"artist"`
	Program   core.ProgramRecord `json:"program"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Query filters List results. Zero values mean no filter.
type Query struct {
	Artist string
	Limit  int
}

// Open creates or opens the database at path and runs migrations.
func Open(path, collection string) (*Store, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, collection: collection, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		collection TEXT NOT NULL,
		artist TEXT NOT NULL,
		station_id TEXT NOT NULL,
		program_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		expire_at INTEGER NOT NULL,
		document TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (collection, artist, station_id, program_id)
	);

	CREATE INDEX IF NOT EXISTS idx_matches_expire ON matches(expire_at);
	CREATE INDEX IF NOT EXISTS idx_matches_start ON matches(collection, start_time);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put upserts a match, so re-running a cycle refreshes rather than duplicates.
func (s *Store) Put(ctx context.Context, m core.Match) error {
	doc, err := json.Marshal(m.Program)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}
	p := m.Program
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (collection, artist, station_id, program_id, title, start_time, end_time, expire_at, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, artist, station_id, program_id) DO UPDATE SET
			title = excluded.title,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			expire_at = excluded.expire_at,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		s.collection, m.Artist, p.Station.ID, int64(p.ID), p.Title,
		p.StartTime.Unix(), p.EndTime.Unix(), p.ExpireAt().Unix(), string(doc), s.now().Unix())
	if err != nil {
		return fmt.Errorf("storing %s/%s/%d: %w", m.Artist, p.Station.ID, p.ID, err)
	}
	return nil
}

// List returns stored matches, newest broadcast first.
func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	query := `SELECT artist, document, updated_at FROM matches WHERE collection = ?`
	args := []any{s.collection}
	if q.Artist != "" {
		query += ` AND artist = ?`
		args = append(args, q.Artist)
	}
	query += ` ORDER BY start_time DESC, station_id, program_id, artist`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			doc     string
			updated int64
		)
		if err := rows.Scan(&e.Artist, &doc, &updated); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		if err := json.Unmarshal([]byte(doc), &e.Program); err != nil {
			return nil, fmt.Errorf("decoding stored program: %w", err)
		}
		e.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ArtistCount is the number of stored programs for one artist.
type ArtistCount struct {
	Artist   string `json:"artist"`
	Programs int    `json:"programs"`
}

// Artists summarizes stored matches per artist, alphabetically.
func (s *Store) Artists(ctx context.Context) ([]ArtistCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT artist, COUNT(*) FROM matches WHERE collection = ? GROUP BY artist ORDER BY artist`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("counting artists: %w", err)
	}
	defer rows.Close()

	var out []ArtistCount
	for rows.Next() {
		var c ArtistCount
		if err := rows.Scan(&c.Artist, &c.Programs); err != nil {
			return nil, fmt.Errorf("scanning artist count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PurgeExpired deletes rows whose retention ended at or before now and
// returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE expire_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging expired matches: %w", err)
	}
	return res.RowsAffected()
}
