package inference

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cardshop/cardshop/internal/cost"
	"github.com/cardshop/cardshop/internal/resilience"
)

func TestRegistryCandidates(t *testing.T) {
	t.Parallel()
	r := NewRegistry(map[Task][]string{
		TaskGrading: {"a", "b", "c"},
	})

	tests := []struct {
		name      string
		preferred string
		want      []string
	}{
		{name: "no preference", want: []string{"a", "b", "c"}},
		{name: "preferred already listed", preferred: "b", want: []string{"b", "a", "c"}},
		{name: "preferred not listed", preferred: "z", want: []string{"z", "a", "b", "c"}},
		{name: "blank preference", preferred: "  ", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.Candidates(TaskGrading, tt.preferred))
		})
	}
}

func TestRegistryIsImmutable(t *testing.T) {
	t.Parallel()
	src := map[Task][]string{TaskListing: {"a", "b"}}
	r := NewRegistry(src)

	src[TaskListing][0] = "mutated"
	got := r.Candidates(TaskListing, "")
	got[1] = "also-mutated"

	assert.Equal(t, []string{"a", "b"}, r.Candidates(TaskListing, ""))
	assert.Equal(t, []string{"b", "a"}, r.Candidates(TaskListing, "b"))
	assert.Equal(t, []string{"a", "b"}, r.Candidates(TaskListing, ""))
}

func TestRegistryUnknownTask(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	assert.Empty(t, r.Candidates(TaskMarket, ""))
	assert.Equal(t, []string{"x"}, r.Candidates(TaskMarket, "x"))
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()
	for _, task := range []Task{TaskGrading, TaskListing, TaskMarket} {
		assert.NotEmpty(t, r.Candidates(task, ""), task)
	}
	assert.Len(t, r.Tasks(), 3)
}

func TestRouter(t *testing.T) {
	t.Parallel()
	gem := new(mockProvider)
	claude := new(mockProvider)
	req := Request{Task: TaskGrading, Prompt: "p"}

	gem.On("Generate", mock.Anything, "gemini-2.5-flash", req).Return(&Response{Text: "g"}, nil)
	claude.On("Generate", mock.Anything, "claude-sonnet-4-5", req).Return(&Response{Text: "c"}, nil)

	r := NewRouter(gem).Route("claude-", claude)

	resp, err := r.Generate(context.Background(), "gemini-2.5-flash", req)
	require.NoError(t, err)
	assert.Equal(t, "g", resp.Text)

	resp, err = r.Generate(context.Background(), "claude-sonnet-4-5", req)
	require.NoError(t, err)
	assert.Equal(t, "c", resp.Text)

	gem.AssertExpectations(t)
	claude.AssertExpectations(t)
}

func TestRouterMissingProviderIsRetryable(t *testing.T) {
	t.Parallel()
	r := NewRouter(nil).Route("claude-", nil)

	_, err := r.Generate(context.Background(), "claude-haiku-4-5", Request{})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resilience.StatusCode(err))
	assert.Equal(t, resilience.Retryable, resilience.Classify(err))
}

func TestClientGenerateFallsBack(t *testing.T) {
	t.Parallel()
	p := new(mockProvider)
	req := Request{Task: TaskListing, Prompt: "write"}

	p.On("Generate", mock.Anything, "pref", req).
		Return(nil, &resilience.ModelError{Model: "pref", StatusCode: 429, Message: "quota"}).Once()
	p.On("Generate", mock.Anything, "a", req).
		Return(&Response{Text: `{"title":"x"}`, Usage: Usage{InputTokens: 10, OutputTokens: 5}}, nil).Once()

	c := NewClient(p, NewRegistry(map[Task][]string{TaskListing: {"a", "b"}}),
		WithCalculator(cost.NewCalculator(cost.DefaultRates())))

	res, err := c.Generate(context.Background(), req, "pref")
	require.NoError(t, err)
	assert.Equal(t, "a", res.ModelUsed)
	assert.Equal(t, `{"title":"x"}`, res.Text)
	assert.Equal(t, int64(10), res.Usage.InputTokens)
	p.AssertExpectations(t)
	p.AssertNotCalled(t, "Generate", mock.Anything, "b", req)
}

func TestClientGenerateCost(t *testing.T) {
	t.Parallel()
	p := new(mockProvider)
	req := Request{Task: TaskGrading}
	usage := Usage{InputTokens: 1_000_000, OutputTokens: 500_000}

	p.On("Generate", mock.Anything, "priced", req).
		Return(&Response{Text: `{}`, Usage: usage}, nil).Once()
	p.On("Generate", mock.Anything, "unpriced", req).
		Return(&Response{Text: `{}`, Usage: usage}, nil).Once()

	calc := cost.NewCalculator(cost.Rates{"priced": {Input: 2, Output: 4}})
	reg := NewRegistry(map[Task][]string{TaskGrading: {"priced"}})
	c := NewClient(p, reg, WithCalculator(calc))

	res, err := c.Generate(context.Background(), req, "")
	require.NoError(t, err)
	assert.True(t, res.Priced)
	assert.InDelta(t, 4.0, res.Cost, 1e-9)

	res, err = c.Generate(context.Background(), req, "unpriced")
	require.NoError(t, err)
	assert.Equal(t, "unpriced", res.ModelUsed)
	assert.False(t, res.Priced)
	assert.Zero(t, res.Cost)
}

func TestClientGenerateFatal(t *testing.T) {
	t.Parallel()
	p := new(mockProvider)
	req := Request{Task: TaskGrading}
	fatal := &resilience.ModelError{Model: "a", StatusCode: 400, Message: "bad image"}

	p.On("Generate", mock.Anything, "a", req).Return(nil, fatal).Once()

	c := NewClient(p, NewRegistry(map[Task][]string{TaskGrading: {"a", "b"}}))
	_, err := c.Generate(context.Background(), req, "")
	require.Error(t, err)

	var me *resilience.ModelError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 400, me.StatusCode)
	p.AssertNumberOfCalls(t, "Generate", 1)
}

func TestClientGenerateExhausted(t *testing.T) {
	t.Parallel()
	p := new(mockProvider)
	req := Request{Task: TaskMarket}
	p.On("Generate", mock.Anything, mock.Anything, req).
		Return(nil, &resilience.ModelError{StatusCode: 404, Message: "model not found"})

	c := NewClient(p, NewRegistry(map[Task][]string{TaskMarket: {"a", "b"}}), WithRateLimit(1000, 2))
	_, err := c.Generate(context.Background(), req, "")
	require.Error(t, err)

	var ex *resilience.ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, 2, ex.Attempts)
	assert.Equal(t, []int{404}, ex.Codes)
}

func TestWithRateLimitDisabled(t *testing.T) {
	t.Parallel()
	c := NewClient(new(mockProvider), NewRegistry(nil), WithRateLimit(0, 5))
	assert.Nil(t, c.limiter)

	c = NewClient(new(mockProvider), NewRegistry(nil), WithRateLimit(2, 0))
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}
