package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name  string
		query SearchQuery
		want  error
	}{
		{"query only", SearchQuery{Q: "climate"}, nil},
		{"full range", SearchQuery{Q: "climate", BeginDate: "20240101", EndDate: "20241231"}, nil},
		{"empty query", SearchQuery{}, ErrMissingQuery},
		{"blank query", SearchQuery{Q: "   "}, ErrMissingQuery},
		{"dashed date", SearchQuery{Q: "x", BeginDate: "2024-01-01"}, ErrInvalidDate},
		{"impossible date", SearchQuery{Q: "x", EndDate: "20241340"}, ErrInvalidDate},
		{"short date", SearchQuery{Q: "x", EndDate: "2024011"}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestUpstreamError_IsAndKind(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("category arts: %w", &UpstreamError{Kind: KindUpstreamUnavailable, Attempts: 3, Err: cause})

	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
	assert.False(t, errors.Is(err, ErrRateLimitExceeded))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindUpstreamUnavailable, KindOf(err))
	assert.Equal(t, ErrorKind(0), KindOf(cause))
	assert.Contains(t, err.Error(), "service unavailable after retries")
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
}

func TestUpstreamError_MessageWithStatus(t *testing.T) {
	err := &UpstreamError{Kind: KindRateLimitExceeded, Status: 429, Attempts: 3}

	assert.Equal(t, "rate limit exceeded (status 429) after 3 attempt(s)", err.Error())
	assert.Equal(t, "rate_limit_exceeded", err.Kind.String())
}
