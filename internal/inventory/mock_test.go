package inventory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/settings"
	"github.com/cardshop/cardshop/internal/store"
)

// --- Generator Mock ---

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req inference.Request, preferred string) (*inference.Result, error) {
	args := m.Called(ctx, req, preferred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inference.Result), args.Error(1)
}

// --- Assets Mock ---

type mockAssets struct {
	mock.Mock
}

func (m *mockAssets) Save(ctx context.Context, data []byte, mimeType string) (string, error) {
	args := m.Called(ctx, data, mimeType)
	return args.String(0), args.Error(1)
}

func (m *mockAssets) Load(ctx context.Context, url string) ([]byte, string, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// --- Settings stub ---

type staticSettings struct {
	s   settings.Settings
	err error
}

func (s staticSettings) Load() (settings.Settings, error) {
	return s.s, s.err
}

// --- Store wrapper ---

// flakyStore fails Replace for selected ids and records the write order.
type flakyStore struct {
	store.Store
	failReplace map[string]error

	mu       sync.Mutex
	replaced []string
}

func (f *flakyStore) Replace(ctx context.Context, id string, card model.Card) (*model.Card, error) {
	if err, ok := f.failReplace[id]; ok {
		return nil, err
	}
	f.mu.Lock()
	f.replaced = append(f.replaced, id)
	f.mu.Unlock()
	return f.Store.Replace(ctx, id, card)
}

func newTestStore(t *testing.T, cards ...model.Card) *flakyStore {
	t.Helper()
	st := store.NewJSONFile(filepath.Join(t.TempDir(), "cards.json"))
	for _, c := range cards {
		_, err := st.Create(context.Background(), c)
		require.NoError(t, err)
	}
	return &flakyStore{Store: st, failReplace: map[string]error{}}
}

func forTask(task inference.Task) any {
	return mock.MatchedBy(func(req inference.Request) bool { return req.Task == task })
}
