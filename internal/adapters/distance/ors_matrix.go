package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// Query retrieves travel durations from one origin to many destinations
// using the OpenRouteService matrix endpoint. A null cell in the response
// (no route) is returned as a nil entry.
func (o *ORSMatrixService) Query(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
	mode domain.TransportMode,
) (_ []*float64, err error) {
	defer obs.Time(ctx, "ors.matrix.Query")(&err)

	if len(destinations) == 0 {
		return []*float64{}, nil
	}

	if len(destinations) > o.batchSize {
		return nil, fmt.Errorf("matrix query: %d destinations exceeds batch size %d", len(destinations), o.batchSize)
	}

	prof, err := profile(mode)
	if err != nil {
		return nil, fmt.Errorf("matrix query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, prof)

	locations := make([][]float64, 0, 1+len(destinations))
	locations = append(locations, origin.CoordsToList())
	for _, c := range destinations {
		locations = append(locations, c.CoordsToList())
	}

	destIdx := make([]int, 0, len(destinations))
	for i := 1; i < len(locations); i++ {
		destIdx = append(destIdx, i)
	}

	bodyObj := matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"duration"},
		Sources:      []int{0},
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return o.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Durations) != 1 {
		return nil, fmt.Errorf("expected 1 source row; got durations=%d", len(mr.Durations))
	}

	row := mr.Durations[0]
	if len(row) != len(destinations) {
		return nil, fmt.Errorf(
			"row length does not match destinations: durations=%d destinations=%d",
			len(row), len(destinations),
		)
	}

	return row, nil
}
