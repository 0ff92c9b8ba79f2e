// Package sqlitestore keeps the journal in a single SQLite database using
// the pure-Go modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
)

// FileName is the database file inside the journal home.
const FileName = "journal.db"

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	thumbnail   TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	version     INTEGER NOT NULL,
	locked      INTEGER NOT NULL DEFAULT 0,
	sealed      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS revisions (
	log_id      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	version     INTEGER NOT NULL,
	ts          TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	body        TEXT NOT NULL,
	PRIMARY KEY (log_id, seq)
);
CREATE TABLE IF NOT EXISTS log_tags (
	log_id   TEXT NOT NULL,
	position INTEGER NOT NULL,
	tag      TEXT NOT NULL,
	PRIMARY KEY (log_id, position)
);
CREATE TABLE IF NOT EXISTS tags (
	position    INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS analyses (
	log_id  TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);
`

type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates or migrates home/journal.db.
func Open(home string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := filepath.Join(home, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path, logger: logger.Named("sqlitestore")}, nil
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(v string) (time.Time, error) { return time.Parse(time.RFC3339Nano, v) }

func (s *Store) ListLogs(ctx context.Context) ([]*model.Log, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM logs`)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	logs := make([]*model.Log, 0, len(ids))
	for _, id := range ids {
		l, err := s.GetLog(ctx, id)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	store.Sort(logs, "newest")
	return logs, nil
}

func (s *Store) GetLog(ctx context.Context, id string) (*model.Log, error) {
	var (
		l                model.Log
		created, updated string
		locked           int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, body, thumbnail, created_at, updated_at, version, locked, sealed
		FROM logs WHERE id = ?`, id).
		Scan(&l.ID, &l.Name, &l.Description, &l.Body, &l.Thumbnail, &created, &updated, &l.Version, &locked, &l.Sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("log %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get log %s: %w", id, err)
	}
	l.Locked = locked != 0
	if l.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("log %s created_at: %w", id, err)
	}
	if l.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("log %s updated_at: %w", id, err)
	}
	if l.Tags, err = s.logTags(ctx, id); err != nil {
		return nil, err
	}
	if l.Revisions, err = s.revisions(ctx, id); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) logTags(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM log_tags WHERE log_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("log tags: %w", err)
	}
	defer rows.Close()
	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) revisions(ctx context.Context, id string) ([]model.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, ts, name, description, body
		FROM revisions WHERE log_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("revisions: %w", err)
	}
	defer rows.Close()
	var revs []model.Revision
	for rows.Next() {
		var (
			r  model.Revision
			ts string
		)
		if err := rows.Scan(&r.Version, &ts, &r.Name, &r.Description, &r.Body); err != nil {
			return nil, err
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("revision timestamp: %w", err)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// SaveLog replaces the log row, its tags and its revisions in one
// transaction.
func (s *Store) SaveLog(ctx context.Context, l *model.Log) error {
	if l.ID == "" {
		return errors.New("invalid log id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	locked := 0
	if l.Locked {
		locked = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO logs (id, name, description, body, thumbnail, created_at, updated_at, version, locked, sealed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description, body = excluded.body,
			thumbnail = excluded.thumbnail, created_at = excluded.created_at, updated_at = excluded.updated_at,
			version = excluded.version, locked = excluded.locked, sealed = excluded.sealed`,
		l.ID, l.Name, l.Description, l.Body, l.Thumbnail,
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt), l.Version, locked, l.Sealed)
	if err != nil {
		return fmt.Errorf("upsert log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM log_tags WHERE log_id = ?`, l.ID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for i, t := range l.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO log_tags (log_id, position, tag) VALUES (?, ?, ?)`, l.ID, i, t); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM revisions WHERE log_id = ?`, l.ID); err != nil {
		return fmt.Errorf("clear revisions: %w", err)
	}
	for i, r := range l.Revisions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO revisions (log_id, seq, version, ts, name, description, body)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, i, r.Version, formatTime(r.Timestamp), r.Name, r.Description, r.Body); err != nil {
			return fmt.Errorf("insert revision: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("saved log", zap.String("id", l.ID), zap.Int("version", l.Version))
	return nil
}

func (s *Store) DeleteLog(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("log %s: %w", id, store.ErrNotFound)
	}
	for _, q := range []string{
		`DELETE FROM log_tags WHERE log_id = ?`,
		`DELETE FROM revisions WHERE log_id = ?`,
		`DELETE FROM analyses WHERE log_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete log %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListTags(ctx context.Context) (model.TagSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, description FROM tags ORDER BY position`)
	if err != nil {
		return model.TagSet{}, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.Name, &t.Description); err != nil {
			return model.TagSet{}, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return model.TagSet{}, err
	}
	return model.NewTagSet(tags...)
}

func (s *Store) SaveTags(ctx context.Context, tags model.TagSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags`); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for i, t := range tags.All() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (position, name, description) VALUES (?, ?, ?)`, i, t.Name, t.Description); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) SaveAnalysis(ctx context.Context, a model.Sentiment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (log_id, payload) VALUES (?, ?)
		ON CONFLICT(log_id) DO UPDATE SET payload = excluded.payload`, a.LogID, string(payload))
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

func (s *Store) GetAnalysis(ctx context.Context, logID string) (model.Sentiment, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE log_id = ?`, logID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Sentiment{}, fmt.Errorf("analysis %s: %w", logID, store.ErrNotFound)
	}
	if err != nil {
		return model.Sentiment{}, fmt.Errorf("get analysis: %w", err)
	}
	var a model.Sentiment
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return model.Sentiment{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return a, nil
}
