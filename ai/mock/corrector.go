package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/geofind/ai"
)

// MockCorrector is a test double for ai.Corrector.
type MockCorrector struct {
	// CorrectFunc is called by Correct if set.
	// If nil, a candidate equal to the query under case folding is returned
	// with confidence 10; otherwise no correction.
	CorrectFunc func(ctx context.Context, query string, candidates []string) (ai.Correction, error)

	callCount atomic.Int64
}

// NewMockCorrector creates a mock corrector with default behavior.
func NewMockCorrector() *MockCorrector {
	return &MockCorrector{}
}

// Correct implements ai.Corrector.
func (m *MockCorrector) Correct(ctx context.Context, query string, candidates []string) (ai.Correction, error) {
	m.callCount.Add(1)

	if m.CorrectFunc != nil {
		return m.CorrectFunc(ctx, query, candidates)
	}
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(query), c) {
			return ai.Correction{City: c, Confidence: 10}, nil
		}
	}
	return ai.Correction{}, nil
}

// CallCount returns the number of times Correct was called.
func (m *MockCorrector) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockCorrector) Reset() {
	m.callCount.Store(0)
	m.CorrectFunc = nil
}
