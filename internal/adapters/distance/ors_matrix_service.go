package distance

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"
)

const (
	defaultORSBaseURL = "https://api.openrouteservice.org"
	defaultBatchSize  = 25
)

// ORSMatrixService implements DistanceMatrixService using OpenRouteService.
//
// It issues one /v2/matrix/{profile} call per Query with a single source
// row and retries transient failures with backoff. Caching and rate
// limiting live in CachedMatrixProvider.
//
// The service is safe for concurrent use.
type ORSMatrixService struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	batchSize    int
	maxAttempts  int
	retryBackoff time.Duration
}

var _ ports.DistanceMatrixService = (*ORSMatrixService)(nil)

func NewORSMatrixService(apiKey, baseURL string, batchSize int) (*ORSMatrixService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if baseURL == "" {
		baseURL = defaultORSBaseURL
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &ORSMatrixService{
		session:      &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		batchSize:    batchSize,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}, nil
}

// Largest number of destinations sent in one matrix request.
func (o *ORSMatrixService) MaxBatchSize() int { return o.batchSize }

// profile maps a transport mode onto an ORS routing profile.
func profile(mode domain.TransportMode) (string, error) {
	switch mode {
	case domain.ModeDriving:
		return "driving-car", nil
	case domain.ModeWalking:
		return "foot-walking", nil
	case domain.ModeCycling:
		return "cycling-regular", nil
	default:
		return "", fmt.Errorf("no ORS profile for transport mode %q", mode)
	}
}
