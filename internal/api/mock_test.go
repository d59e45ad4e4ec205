package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardshop/cardshop/internal/assets"
	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/inventory"
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

func forTask(task inference.Task) any {
	return mock.MatchedBy(func(req inference.Request) bool { return req.Task == task })
}

// testEnv is a router over file-backed collaborators in a temp dir.
type testEnv struct {
	handler http.Handler
	store   store.Store
	assets  *assets.Local
	gen     *mockGenerator
}

func newTestEnv(t *testing.T, cards ...model.Card) *testEnv {
	t.Helper()
	dir := t.TempDir()

	st := store.NewJSONFile(filepath.Join(dir, "cards.json"))
	for _, c := range cards {
		_, err := st.Create(context.Background(), c)
		require.NoError(t, err)
	}
	as := assets.NewLocal(filepath.Join(dir, "uploads"), "/uploads")
	set := settings.NewFileStore(filepath.Join(dir, "settings.yaml"))
	gen := new(mockGenerator)

	inv := inventory.New(st, gen, as, set, inventory.Config{
		MarketTTL: 24 * time.Hour,
		Now:       func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})

	return &testEnv{
		handler: NewRouter(Deps{
			Inventory: inv,
			Settings:  set,
			Assets:    as,
			AssetsURL: "/uploads",
			Registry:  inference.DefaultRegistry(),
		}),
		store:  st,
		assets: as,
		gen:    gen,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
