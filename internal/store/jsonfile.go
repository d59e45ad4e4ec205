package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cardshop/cardshop/internal/model"
)

// JSONFileStore keeps every card in one JSON array document. Each write
// rewrites the whole document through a temp file and rename.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewJSONFile creates a store over the document at path. A missing file is
// an empty collection.
func NewJSONFile(path string) *JSONFileStore {
	return &JSONFileStore{
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *JSONFileStore) Migrate(_ context.Context) error {
	return eris.Wrap(os.MkdirAll(filepath.Dir(s.path), 0o755), "jsonfile: create data dir")
}

func (s *JSONFileStore) Close() error {
	return nil
}

func (s *JSONFileStore) List(_ context.Context) ([]model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i] = model.Normalize(cards[i])
	}
	return cards, nil
}

func (s *JSONFileStore) Get(_ context.Context, id string) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.ID == id {
			c = model.Normalize(c)
			return &c, nil
		}
	}
	return nil, notFound(id)
}

func (s *JSONFileStore) Create(_ context.Context, card model.Card) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.read()
	if err != nil {
		return nil, err
	}
	card = prepareCreate(card, s.now())
	for _, c := range cards {
		if c.ID == card.ID {
			return nil, eris.Wrapf(ErrExists, "jsonfile: card %s", card.ID)
		}
	}

	cards = append(cards, card)
	if err := s.write(cards); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *JSONFileStore) Replace(_ context.Context, id string, card model.Card) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.read()
	if err != nil {
		return nil, err
	}
	for i, c := range cards {
		if c.ID != id {
			continue
		}
		card = prepareReplace(id, card, c.CreatedAt, s.now())
		cards[i] = card
		if err := s.write(cards); err != nil {
			return nil, err
		}
		return &card, nil
	}
	return nil, notFound(id)
}

func (s *JSONFileStore) read() ([]model.Card, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Card{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "jsonfile: read")
	}
	if len(data) == 0 {
		return []model.Card{}, nil
	}

	var cards []model.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, eris.Wrapf(err, "jsonfile: decode %s", s.path)
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return cards, nil
}

func (s *JSONFileStore) write(cards []model.Card) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "jsonfile: create data dir")
	}

	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return eris.Wrap(err, "jsonfile: encode")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "jsonfile: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "jsonfile: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "jsonfile: close temp file")
	}
	return eris.Wrap(os.Rename(tmp.Name(), s.path), "jsonfile: replace document")
}
