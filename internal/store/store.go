package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/cardshop/cardshop/internal/model"
)

var (
	// ErrNotFound is returned when the target card does not exist.
	ErrNotFound = eris.New("card not found")
	// ErrExists is returned when creating a card whose id is already taken.
	ErrExists = eris.New("card already exists")
)

// Store persists cards. Writes are full-record replaces with last-writer-wins
// semantics; there is no revision token.
type Store interface {
	List(ctx context.Context) ([]model.Card, error)
	Get(ctx context.Context, id string) (*model.Card, error)
	Create(ctx context.Context, card model.Card) (*model.Card, error)
	Replace(ctx context.Context, id string, card model.Card) (*model.Card, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Drivers.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a driver.
type Options struct {
	Driver      string
	Path        string // json document or sqlite database file
	DatabaseURL string // postgres connection string
	Pool        *PoolConfig
}

// Open creates the configured store and runs its migration.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(opts.Driver) {
	case "", DriverJSON:
		path := opts.Path
		if path == "" {
			path = "data/cards.json"
		}
		st = NewJSONFile(path)
	case DriverSQLite:
		dsn := opts.Path
		if dsn == "" {
			dsn = "data/cards.db"
		}
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires a database url")
		}
		st, err = NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// prepareCreate assigns an id when absent, stamps both timestamps and
// normalizes the card.
func prepareCreate(card model.Card, now time.Time) model.Card {
	if strings.TrimSpace(card.ID) == "" {
		card.ID = uuid.New().String()
	}
	card.CreatedAt = now
	card.UpdatedAt = now
	return model.Normalize(card)
}

// prepareReplace pins the id, keeps the original creation time and stamps
// the update time.
func prepareReplace(id string, card model.Card, createdAt, now time.Time) model.Card {
	card.ID = id
	card.CreatedAt = createdAt
	card.UpdatedAt = now
	return model.Normalize(card)
}

func notFound(id string) error {
	return eris.Wrapf(ErrNotFound, "store: card %s", id)
}
