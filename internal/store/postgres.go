package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cardshop/cardshop/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store needs. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool. Each card is one JSONB row.
type PostgresStore struct {
	pool    Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgres(pool, pool.Close), nil
}

func newPostgres(pool Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		closeFn: closeFn,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cards (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards(created_at);
CREATE INDEX IF NOT EXISTS idx_cards_status ON cards((data->>'status'));
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Card, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data, created_at, updated_at FROM cards ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cards")
	}
	defer rows.Close()

	cards := []model.Card{}
	for rows.Next() {
		c, err := scanPGCard(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan card")
		}
		cards = append(cards, *c)
	}
	return cards, eris.Wrap(rows.Err(), "postgres: iterate cards")
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Card, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM cards WHERE id = $1`, id)
	c, err := scanPGCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get card %s", id)
	}
	return c, nil
}

func (s *PostgresStore) Create(ctx context.Context, card model.Card) (*model.Card, error) {
	card = prepareCreate(card, s.now())

	data, err := json.Marshal(card)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal card")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO cards (id, data, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		card.ID, data, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, eris.Wrapf(ErrExists, "postgres: card %s", card.ID)
		}
		return nil, eris.Wrap(err, "postgres: insert card")
	}
	return &card, nil
}

// Replace overwrites the stored document in one statement; the original
// creation time comes back through RETURNING.
func (s *PostgresStore) Replace(ctx context.Context, id string, card model.Card) (*model.Card, error) {
	now := s.now()
	card = prepareReplace(id, card, time.Time{}, now)

	data, err := json.Marshal(card)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal card")
	}

	var createdAt time.Time
	err = s.pool.QueryRow(ctx,
		`UPDATE cards SET data = $1, updated_at = $2 WHERE id = $3 RETURNING created_at`,
		data, now, id,
	).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update card %s", id)
	}

	card.CreatedAt = createdAt.UTC()
	return &card, nil
}

func scanPGCard(row pgx.Row) (*model.Card, error) {
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
