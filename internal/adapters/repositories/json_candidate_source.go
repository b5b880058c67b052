package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"
)

// JSONCandidateSource reads a planning request from a JSON file in the
// same shape POST /itineraries accepts.
type JSONCandidateSource struct {
	Path     string
	Schedule domain.ScheduleParams
	Now      func() time.Time
}

var _ ports.CandidateSource = (*JSONCandidateSource)(nil)

func NewJSONCandidateSource(path string, schedule domain.ScheduleParams) *JSONCandidateSource {
	return &JSONCandidateSource{Path: path, Schedule: schedule, Now: time.Now}
}

func (s *JSONCandidateSource) LoadRequest(ctx context.Context) (domain.PlanRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlanRequest{}, err
	}

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.PlanRequest{}, fmt.Errorf("load request: read %q: %w", s.Path, err)
	}

	var req dto.PlanRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return domain.PlanRequest{}, fmt.Errorf("load request: parse json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return domain.PlanRequest{}, fmt.Errorf("load request: %q must contain a single JSON object", s.Path)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	out, err := req.ToDomain(now(), s.Schedule)
	if err != nil {
		return domain.PlanRequest{}, fmt.Errorf("load request: %w", err)
	}
	return out, nil
}
