// Package store persists favorites and play records in a SQLite database.
// It implements the persistence contract the card controllers consume:
// existence checks, add/remove, and play-record deletion, all keyed by the
// composite (source, item_id) identity.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/moonview/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS favorites (
	source         TEXT NOT NULL,
	item_id        TEXT NOT NULL,
	title          TEXT NOT NULL,
	source_name    TEXT NOT NULL DEFAULT '',
	year           TEXT NOT NULL DEFAULT '',
	cover          TEXT NOT NULL DEFAULT '',
	total_episodes INTEGER NOT NULL DEFAULT 0,
	save_time      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source, item_id)
);
CREATE TABLE IF NOT EXISTS play_records (
	source         TEXT NOT NULL,
	item_id        TEXT NOT NULL,
	title          TEXT NOT NULL,
	source_name    TEXT NOT NULL DEFAULT '',
	year           TEXT NOT NULL DEFAULT '',
	cover          TEXT NOT NULL DEFAULT '',
	episode_index  INTEGER NOT NULL DEFAULT 0,
	total_episodes INTEGER NOT NULL DEFAULT 0,
	play_time      INTEGER NOT NULL DEFAULT 0,
	duration       INTEGER NOT NULL DEFAULT 0,
	save_time      INTEGER NOT NULL DEFAULT 0,
	search_title   TEXT NOT NULL DEFAULT '',
	source_names   TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (source, item_id)
);
`

// Store provides access to the moonview SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Non-fatal; the defaults still work.
			continue
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Exists reports whether the subject is favorited.
func (s *Store) Exists(ctx context.Context, source, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE source = ? AND item_id = ?`,
		source, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("favorite lookup failed: %w", err)
	}
	return n > 0, nil
}

// Add upserts a favorite record for the subject.
func (s *Store) Add(ctx context.Context, source, id string, rec model.FavoriteRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites
			(source, item_id, title, source_name, year, cover, total_episodes, save_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, item_id) DO UPDATE SET
			title = excluded.title,
			source_name = excluded.source_name,
			year = excluded.year,
			cover = excluded.cover,
			total_episodes = excluded.total_episodes,
			save_time = excluded.save_time`,
		source, id, rec.Title, rec.SourceName, rec.Year, rec.Cover,
		rec.TotalEpisodes, rec.SaveTime)
	if err != nil {
		return fmt.Errorf("cannot add favorite: %w", err)
	}
	return nil
}

// Remove deletes the subject's favorite record. Removing a record that is
// not there is not an error.
func (s *Store) Remove(ctx context.Context, source, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE source = ? AND item_id = ?`, source, id)
	if err != nil {
		return fmt.Errorf("cannot remove favorite: %w", err)
	}
	return nil
}

// Favorites returns all favorite records keyed by broadcast key.
func (s *Store) Favorites(ctx context.Context) (map[string]model.FavoriteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, item_id, title, source_name, year, cover,
		       total_episodes, save_time
		FROM favorites ORDER BY save_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("cannot load favorites: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.FavoriteRecord)
	for rows.Next() {
		var key model.CardKey
		var rec model.FavoriteRecord
		if err := rows.Scan(&key.Source, &key.ID, &rec.Title, &rec.SourceName,
			&rec.Year, &rec.Cover, &rec.TotalEpisodes, &rec.SaveTime); err != nil {
			continue
		}
		out[key.String()] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}
	return out, nil
}

// SavePlayRecord upserts a play record for the subject.
func (s *Store) SavePlayRecord(ctx context.Context, source, id string, rec model.PlayRecord) error {
	names, err := json.Marshal(dedupe(rec.SourceNames))
	if err != nil {
		return fmt.Errorf("cannot encode source names: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO play_records
			(source, item_id, title, source_name, year, cover, episode_index,
			 total_episodes, play_time, duration, save_time, search_title, source_names)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, item_id) DO UPDATE SET
			title = excluded.title,
			source_name = excluded.source_name,
			year = excluded.year,
			cover = excluded.cover,
			episode_index = excluded.episode_index,
			total_episodes = excluded.total_episodes,
			play_time = excluded.play_time,
			duration = excluded.duration,
			save_time = excluded.save_time,
			search_title = excluded.search_title,
			source_names = excluded.source_names`,
		source, id, rec.Title, rec.SourceName, rec.Year, rec.Cover,
		rec.EpisodeIndex, rec.TotalEpisodes, rec.PlayTime, rec.Duration,
		rec.SaveTime, rec.SearchTitle, string(names))
	if err != nil {
		return fmt.Errorf("cannot save play record: %w", err)
	}
	return nil
}

// RemovePlayRecord deletes the subject's play record.
func (s *Store) RemovePlayRecord(ctx context.Context, source, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM play_records WHERE source = ? AND item_id = ?`, source, id)
	if err != nil {
		return fmt.Errorf("cannot remove play record: %w", err)
	}
	return nil
}

// PlayRecords returns all play records keyed by broadcast key, newest
// first in iteration-independent map form.
func (s *Store) PlayRecords(ctx context.Context) (map[string]model.PlayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, item_id, title, source_name, year, cover, episode_index,
		       total_episodes, play_time, duration, save_time, search_title, source_names
		FROM play_records ORDER BY save_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("cannot load play records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.PlayRecord)
	for rows.Next() {
		var key model.CardKey
		var rec model.PlayRecord
		var namesJSON string
		if err := rows.Scan(&key.Source, &key.ID, &rec.Title, &rec.SourceName,
			&rec.Year, &rec.Cover, &rec.EpisodeIndex, &rec.TotalEpisodes,
			&rec.PlayTime, &rec.Duration, &rec.SaveTime, &rec.SearchTitle,
			&namesJSON); err != nil {
			continue
		}
		rec.SourceNames = parseNameList(namesJSON)
		out[key.String()] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating play records: %w", err)
	}
	return out, nil
}

// parseNameList parses the JSON source-name column, tolerating the empty
// and null forms older rows may carry.
func parseNameList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "[]" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil
	}
	return dedupe(names)
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
