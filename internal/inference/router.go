package inference

import (
	"context"
	"net/http"
	"strings"

	"github.com/cardshop/cardshop/internal/resilience"
)

// Router dispatches each call to a provider chosen by model-identifier prefix.
type Router struct {
	routes   []route
	fallback Provider
}

type route struct {
	prefix   string
	provider Provider
}

// NewRouter creates a Router that sends unmatched models to def (which may be nil).
func NewRouter(def Provider) *Router {
	return &Router{fallback: def}
}

// Route registers p for model identifiers starting with prefix. A nil p is ignored.
func (r *Router) Route(prefix string, p Provider) *Router {
	if p != nil {
		r.routes = append(r.routes, route{prefix: prefix, provider: p})
	}
	return r
}

// Generate implements Provider. A model with no configured provider fails as
// "not found" so the fallback policy moves on to the next candidate.
func (r *Router) Generate(ctx context.Context, model string, req Request) (*Response, error) {
	p := r.providerFor(model)
	if p == nil {
		return nil, &resilience.ModelError{
			Model:      model,
			StatusCode: http.StatusNotFound,
			Message:    "no provider configured for model",
		}
	}
	return p.Generate(ctx, model, req)
}

func (r *Router) providerFor(model string) Provider {
	var best route
	for _, rt := range r.routes {
		if strings.HasPrefix(model, rt.prefix) && len(rt.prefix) >= len(best.prefix) {
			best = rt
		}
	}
	if best.provider != nil {
		return best.provider
	}
	return r.fallback
}
