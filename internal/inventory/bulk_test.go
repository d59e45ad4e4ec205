package inventory

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/resilience"
	"github.com/cardshop/cardshop/internal/settings"
)

func TestBulkGenerateListingsToleratesFailures(t *testing.T) {
	st := newTestStore(t,
		model.Card{ID: "ok1", Name: "Alpha"},
		model.Card{ID: "bad", Name: "Broken", Listing: &model.Listing{Title: "prior copy"}},
		model.Card{ID: "ok2", Name: "Gamma"},
	)
	gen := new(mockGenerator)
	byName := func(name string) any {
		return mock.MatchedBy(func(req inference.Request) bool {
			return req.Task == inference.TaskListing && containsLine(req.Prompt, "Card: "+name)
		})
	}
	gen.On("Generate", mock.Anything, byName("Alpha"), "").Return(&inference.Result{Text: listingJSON}, nil)
	gen.On("Generate", mock.Anything, byName("Gamma"), "").Return(&inference.Result{Text: listingJSON}, nil)
	gen.On("Generate", mock.Anything, byName("Broken"), "").
		Return(nil, &resilience.ModelError{StatusCode: 401, Message: "invalid api key"})

	svc := newService(st, gen, new(mockAssets), settings.Defaults())
	res, err := svc.BulkGenerateListings(context.Background(), []string{"ok1", "bad", "ok2", "missing"})
	require.NoError(t, err)

	require.Len(t, res.Updated, 2)
	assert.Equal(t, "ok1", res.Updated[0].ID)
	assert.Equal(t, "ok2", res.Updated[1].ID)
	assert.Contains(t, res.Failed, "bad")
	assert.Contains(t, res.Failed, "missing")

	bad, err := st.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, "prior copy", bad.Listing.Title)
}

func TestBulkGenerateListingsWithLimit(t *testing.T) {
	st := newTestStore(t, model.Card{ID: "a"}, model.Card{ID: "b"}, model.Card{ID: "c"})
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, forTask(inference.TaskListing), "").Return(&inference.Result{Text: listingJSON}, nil)

	svc := newService(st, gen, new(mockAssets), settings.Defaults())
	svc.cfg.MaxConcurrentListings = 1

	res, err := svc.BulkGenerateListings(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, res.Updated, 3)
	assert.Empty(t, res.Failed)
	gen.AssertNumberOfCalls(t, "Generate", 3)
}

func TestBulkUpdateStatusSequential(t *testing.T) {
	st := newTestStore(t,
		model.Card{ID: "a"},
		model.Card{ID: "b", Listing: &model.Listing{ListedDate: "2025-01-01"}},
		model.Card{ID: "c"},
	)
	st.failReplace["b"] = eris.New("disk full")

	svc := newService(st, new(mockGenerator), new(mockAssets), settings.Defaults())
	res, err := svc.BulkUpdateStatus(context.Background(), []string{"c", "b", "a"}, model.StatusSold)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a"}, st.replaced)
	require.Len(t, res.Updated, 2)
	assert.Equal(t, "c", res.Updated[0].ID)
	assert.Equal(t, model.StatusSold, res.Updated[0].Status)
	assert.Equal(t, "2025-06-01", res.Updated[0].Listing.SoldDate)
	assert.Equal(t, model.ListingEnded, res.Updated[0].Listing.Status)
	assert.Contains(t, res.Failed["b"], "disk full")

	b, err := st.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInventory, b.Status)
}

func TestBulkUpdateStatusStampsListedDateOnce(t *testing.T) {
	st := newTestStore(t,
		model.Card{ID: "new"},
		model.Card{ID: "relisted", Listing: &model.Listing{ListedDate: "2024-12-24"}},
	)
	svc := newService(st, new(mockGenerator), new(mockAssets), settings.Defaults())

	res, err := svc.BulkUpdateStatus(context.Background(), []string{"new", "relisted"}, model.StatusListing)
	require.NoError(t, err)
	require.Len(t, res.Updated, 2)
	assert.Equal(t, "2025-06-01", res.Updated[0].Listing.ListedDate)
	assert.Equal(t, "2024-12-24", res.Updated[1].Listing.ListedDate)
	assert.Equal(t, model.ListingActive, res.Updated[1].Listing.Status)
}

func TestBulkUpdateStatusNewListingUsesDefaultPlatforms(t *testing.T) {
	st := newTestStore(t,
		model.Card{ID: "new"},
		model.Card{ID: "listed", Listing: &model.Listing{Platforms: []string{"cardmarket"}}},
	)
	set := settings.Settings{Platforms: []string{"tcgplayer"}}
	svc := newService(st, new(mockGenerator), new(mockAssets), set)

	res, err := svc.BulkUpdateStatus(context.Background(), []string{"new", "listed"}, model.StatusListing)
	require.NoError(t, err)
	require.Len(t, res.Updated, 2)
	assert.Equal(t, []string{"tcgplayer"}, res.Updated[0].Listing.Platforms)
	assert.Equal(t, []string{"cardmarket"}, res.Updated[1].Listing.Platforms)
}

func TestBulkUpdateStatusSettingsError(t *testing.T) {
	st := newTestStore(t, model.Card{ID: "a"})
	svc := New(st, new(mockGenerator), new(mockAssets), staticSettings{err: eris.New("unreadable")}, Config{})

	_, err := svc.BulkUpdateStatus(context.Background(), []string{"a"}, model.StatusSold)
	require.Error(t, err)
	assert.Empty(t, st.replaced)
}

func TestBulkUpdateStatusBackToInventory(t *testing.T) {
	st := newTestStore(t, model.Card{ID: "a", Status: model.StatusSold, Listing: &model.Listing{SoldDate: "2025-05-05"}})
	svc := newService(st, new(mockGenerator), new(mockAssets), settings.Defaults())

	res, err := svc.BulkUpdateStatus(context.Background(), []string{"a"}, model.StatusInventory)
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, model.StatusInventory, res.Updated[0].Status)
	assert.Equal(t, "2025-05-05", res.Updated[0].Listing.SoldDate)
}

func TestBulkUpdateStatusInvalid(t *testing.T) {
	svc := newService(newTestStore(t), new(mockGenerator), new(mockAssets), settings.Defaults())
	_, err := svc.BulkUpdateStatus(context.Background(), []string{"a"}, "archived")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrValidation))
}

func containsLine(text, line string) bool {
	return slices.Contains(strings.Split(text, "\n"), line)
}
