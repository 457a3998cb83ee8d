package oracle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creedhall/doctrine/internal/types"
)

// MockOracle is an Oracle for testing.
type MockOracle struct {
	// Configurable behavior
	Latency   time.Duration
	Responses map[string]*types.PartialExtraction // keyed by window text
	Fail      map[string]bool                     // windows that always fail
	ExtractFn func(ctx context.Context, window string) (*types.PartialExtraction, error)

	// State
	callCount atomic.Int64

	mu      sync.Mutex
	windows []string // windows seen, in call order
}

// NewMockOracle creates a mock oracle with empty scripted responses.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		Responses: make(map[string]*types.PartialExtraction),
		Fail:      make(map[string]bool),
	}
}

// Extract returns the scripted response for the window. Windows with no
// script yield an empty extraction; windows marked failing return an
// OracleError every time, as a client does after exhausting retries.
func (m *MockOracle) Extract(ctx context.Context, window string) (*types.PartialExtraction, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.windows = append(m.windows, window)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, window)
	}

	if m.Fail[window] {
		return nil, &OracleError{Attempts: 1, Err: fmt.Errorf("scripted failure")}
	}

	if pe, ok := m.Responses[window]; ok {
		return pe, nil
	}
	return &types.PartialExtraction{
		Principles:      []string{},
		Claims:          []string{},
		Rules:           []string{},
		Warnings:        []string{},
		CrossReferences: []int{},
	}, nil
}

// Calls returns the number of Extract invocations.
func (m *MockOracle) Calls() int {
	return int(m.callCount.Load())
}

// Windows returns the windows seen so far, in call order.
func (m *MockOracle) Windows() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.windows))
	copy(out, m.windows)
	return out
}
