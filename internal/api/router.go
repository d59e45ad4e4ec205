// Package api exposes the card operations as a JSON HTTP API for the browser
// UI.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cardshop/cardshop/internal/assets"
	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/inventory"
	"github.com/cardshop/cardshop/internal/settings"
)

// maxUploadBytes bounds multipart bodies.
const maxUploadBytes = 32 << 20

// SettingsStore reads and writes grading settings.
type SettingsStore interface {
	Load() (settings.Settings, error)
	Save(settings.Settings) (settings.Settings, error)
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Inventory   *inventory.Service
	Settings    SettingsStore
	Assets      *assets.Local
	AssetsURL   string // URL prefix assets are served under, e.g. /uploads
	Registry    inference.Registry
	CORSOrigins []string
}

type server struct {
	inv      *inventory.Service
	settings SettingsStore
	assets   *assets.Local
	registry inference.Registry
}

// NewRouter builds the HTTP handler with all routes.
func NewRouter(d Deps) http.Handler {
	s := &server{inv: d.Inventory, settings: d.Settings, assets: d.Assets, registry: d.Registry}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.listCards)
			r.Post("/", s.createCard)
			r.Post("/scan", s.scanCard)
			r.Post("/bulk/status", s.bulkStatus)
			r.Post("/bulk/listings", s.bulkListings)
			r.Route("/{cardID}", func(r chi.Router) {
				r.Get("/", s.getCard)
				r.Put("/", s.replaceCard)
				r.Post("/grade", s.regradeCard)
				r.Post("/listing", s.generateListing)
				r.Post("/market", s.marketData)
			})
		})
		r.Post("/upload", s.upload)
		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.putSettings)
		r.Get("/models", s.listModels)
	})

	if d.Assets != nil {
		prefix := "/" + strings.Trim(d.AssetsURL, "/")
		if prefix == "/" {
			prefix = "/uploads"
		}
		files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(d.Assets.Dir())))
		r.Get(prefix+"/*", files.ServeHTTP)
	}

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
