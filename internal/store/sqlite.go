package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cardshop/cardshop/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Each card is one row
// holding its JSON document.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "sqlite: create data dir")
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cards (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data, created_at, updated_at FROM cards ORDER BY created_at, rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cards")
	}
	defer rows.Close() //nolint:errcheck

	cards := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan card")
		}
		cards = append(cards, *c)
	}
	return cards, eris.Wrap(rows.Err(), "sqlite: iterate cards")
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data, created_at, updated_at FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get card %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) Create(ctx context.Context, card model.Card) (*model.Card, error) {
	card = prepareCreate(card, s.now())

	data, err := json.Marshal(card)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal card")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cards (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		card.ID, string(data), card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, eris.Wrapf(ErrExists, "sqlite: card %s", card.ID)
		}
		return nil, eris.Wrap(err, "sqlite: insert card")
	}
	return &card, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, id string, card model.Card) (*model.Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM cards WHERE id = ?`, id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load card %s", id)
	}

	card = prepareReplace(id, card, createdAt.UTC(), s.now())
	data, err := json.Marshal(card)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal card")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE cards SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), card.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update card %s", id)
	}
	if err := checkRowsAffected(res, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return &card, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanCard decodes one row. The timestamp columns are authoritative over the
// values embedded in the document.
func scanCard(row scannable) (*model.Card, error) {
	var (
		data                 []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var c model.Card
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "unmarshal card")
	}
	c.CreatedAt = createdAt.UTC()
	c.UpdatedAt = updatedAt.UTC()
	c = model.Normalize(c)
	return &c, nil
}
