package distance

import (
	"context"
	"errors"
	"sync"
	"trip-planner-service/internal/domain"
)

type MockPair struct {
	From, To domain.Coordinates
	Seconds  float64
}

// MockMatrixService is a scripted DistanceMatrixService for tests.
// Pairs not listed resolve through Fallback, or to nil (no route).
type MockMatrixService struct {
	BatchSize int
	Fallback  func(from, to domain.Coordinates) *float64
	// FailOrigins makes every Query from these origins fail.
	FailOrigins map[domain.Coordinates]bool

	mu    sync.Mutex
	m     map[domain.Pair]float64
	calls [][]domain.Coordinates
}

var errMockFailure = errors.New("mock matrix failure")

func NewMockMatrixService(pairs []MockPair) *MockMatrixService {
	m := make(map[domain.Pair]float64, len(pairs))
	for _, p := range pairs {
		m[domain.Pair{From: p.From, To: p.To}] = p.Seconds
	}
	return &MockMatrixService{m: m, FailOrigins: map[domain.Coordinates]bool{}}
}

func (s *MockMatrixService) MaxBatchSize() int { return s.BatchSize }

func (s *MockMatrixService) Query(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
	_ domain.TransportMode,
) ([]*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]domain.Coordinates(nil), destinations...))

	if s.FailOrigins[origin] {
		return nil, errMockFailure
	}

	out := make([]*float64, len(destinations))
	for i, d := range destinations {
		if v, ok := s.m[domain.Pair{From: origin, To: d}]; ok {
			out[i] = ptr(v)
			continue
		}
		if s.Fallback != nil {
			out[i] = s.Fallback(origin, d)
		}
	}
	return out, nil
}

// Calls returns the destination batches received so far.
func (s *MockMatrixService) Calls() [][]domain.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.Coordinates(nil), s.calls...)
}
