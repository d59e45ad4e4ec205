package inference

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cardshop/cardshop/internal/cost"
	"github.com/cardshop/cardshop/internal/resilience"
)

// Result is a successful call together with the candidate that produced it.
type Result struct {
	Text      string
	ModelUsed string
	Usage     Usage
	Duration  time.Duration
	Cost      float64 // estimated USD; 0 when the model has no configured rate
	Priced    bool
}

// Client drives the fallback policy over a Registry and a Provider.
type Client struct {
	provider Provider
	registry Registry
	limiter  *rate.Limiter
	calc     *cost.Calculator
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit throttles provider calls to rps with the given burst. A
// non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCalculator attaches cost attribution to every successful call.
func WithCalculator(calc *cost.Calculator) Option {
	return func(c *Client) {
		if calc != nil {
			c.calc = calc
		}
	}
}

// NewClient creates a Client.
func NewClient(p Provider, r Registry, opts ...Option) *Client {
	c := &Client{
		provider: p,
		registry: r,
		calc:     cost.NewCalculator(nil),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registry returns the client's candidate registry.
func (c *Client) Registry() Registry {
	return c.registry
}

// Generate sends req to the candidates for req.Task, preferred first, and
// returns the first successful response.
func (c *Client) Generate(ctx context.Context, req Request, preferred string) (*Result, error) {
	candidates := c.registry.Candidates(req.Task, preferred)
	start := time.Now()

	resp, used, err := resilience.Invoke(ctx, candidates, func(ctx context.Context, model string) (*Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "inference: rate limit wait")
			}
		}
		return c.provider.Generate(ctx, model, req)
	}, resilience.FallbackConfig{OnFallback: resilience.FallbackLogger(string(req.Task))})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Text:      resp.Text,
		ModelUsed: used,
		Usage:     resp.Usage,
		Duration:  time.Since(start),
		Cost:      c.calc.Inference(used, resp.Usage.InputTokens, resp.Usage.OutputTokens),
		Priced:    c.calc.Known(used),
	}

	zap.L().Info("inference complete",
		zap.String("task", string(req.Task)),
		zap.String("model", used),
		zap.Int("images", len(req.Images)),
		zap.Int64("input_tokens", res.Usage.InputTokens),
		zap.Int64("output_tokens", res.Usage.OutputTokens),
		zap.Float64("estimated_cost_usd", res.Cost),
		zap.Bool("priced", res.Priced),
		zap.Duration("duration", res.Duration),
	)

	return res, nil
}
