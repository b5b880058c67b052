package distance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestORS(t *testing.T, h http.HandlerFunc) *ORSMatrixService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	o, err := NewORSMatrixService("test-key", srv.URL, 3)
	require.NoError(t, err)
	o.retryBackoff = time.Millisecond
	return o
}

var (
	origin = domain.Coordinates{Lat: 48.8584, Lon: 2.2945}
	dests  = []domain.Coordinates{
		{Lat: 48.8606, Lon: 2.3376},
		{Lat: 48.8530, Lon: 2.3499},
	}
)

func TestORSQueryParsesRowWithNulls(t *testing.T) {
	var got matrixRequest
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/matrix/foot-walking", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"durations":[[1200.5,null]]}`))
	})

	out, err := o.Query(context.Background(), origin, dests, domain.ModeWalking)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0])
	assert.InDelta(t, 1200.5, *out[0], 1e-9)
	assert.Nil(t, out[1])

	assert.Equal(t, []int{0}, got.Sources)
	assert.Equal(t, []int{1, 2}, got.Destinations)
	assert.Equal(t, []float64{origin.Lon, origin.Lat}, got.Locations[0])
}

func TestORSQueryRejectsOversizedBatch(t *testing.T) {
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := o.Query(context.Background(), origin, make([]domain.Coordinates, 4), domain.ModeDriving)
	assert.Error(t, err)
}

func TestORSQueryRowLengthMismatch(t *testing.T) {
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"durations":[[10]]}`))
	})

	_, err := o.Query(context.Background(), origin, dests, domain.ModeDriving)
	assert.Error(t, err)
}

func TestORSQueryRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"durations":[[10,20]]}`))
	})

	out, err := o.Query(context.Background(), origin, dests, domain.ModeCycling)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.InDelta(t, 20.0, *out[1], 1e-9)
}

func TestORSQueryDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	})

	_, err := o.Query(context.Background(), origin, dests, domain.ModeDriving)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Body, "bad coordinates")
}

func TestORSQueryGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	o.maxAttempts = 2

	_, err := o.Query(context.Background(), origin, dests, domain.ModeDriving)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestORSQueryStopsOnCancelledContext(t *testing.T) {
	o := newTestORS(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "20")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := o.Query(ctx, origin, dests, domain.ModeDriving)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestNewORSMatrixServiceRequiresKey(t *testing.T) {
	_, err := NewORSMatrixService(" ", "", 0)
	assert.Error(t, err)

	o, err := NewORSMatrixService("k", "", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, o.MaxBatchSize())
	assert.Equal(t, defaultORSBaseURL, o.baseURL)
}

func TestProfileUnknownMode(t *testing.T) {
	_, err := profile(domain.TransportMode("boat"))
	assert.Error(t, err)
}
