package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/jobs"
	"github.com/yourusername/turfsim/internal/models"
)

const clientIDHeader = "X-Client-ID"

// SubmitRequest is the submission payload. Omitted tuning fields fall
// back to the configured defaults.
type SubmitRequest struct {
	Strategy              models.StrategyDefinition `json:"strategy"`
	StartDate             string                    `json:"start_date"`
	EndDate               string                    `json:"end_date"`
	InitialCapital        *float64                  `json:"initial_capital,omitempty"`
	CommissionRate        *float64                  `json:"commission_rate,omitempty"`
	DecisionOffsetMinutes *int                      `json:"decision_offset_minutes,omitempty"`
	Seed                  int64                     `json:"seed,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.requireClient(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	params, err := s.buildParams(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.manager.CreateJob(clientID, params)
	if err != nil {
		s.writeJobError(w, err)
		return
	}

	if err := s.pool.Submit(r.Context(), job); err != nil {
		// roll the record back so the client can resubmit
		if _, cancelErr := s.manager.CancelJob(job.ID, clientID); cancelErr != nil {
			s.logger.WithError(cancelErr).Warn("Could not cancel unsubmittable job")
		}
		s.writeError(w, http.StatusServiceUnavailable, "job queue unavailable")
		return
	}

	s.audit.LogJobSubmitted(clientID, job.ID.String(), job.StrategyName, params.StartDate, params.EndDate, params.Seed)
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) buildParams(req SubmitRequest) (backtest.RunParams, error) {
	params := backtest.ParamsFromConfig(&s.defaults)
	params.Strategy = req.Strategy
	params.Seed = req.Seed

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return params, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", req.StartDate)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return params, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", req.EndDate)
	}
	params.StartDate = start
	params.EndDate = end

	if req.InitialCapital != nil {
		params.InitialCapital = *req.InitialCapital
	}
	if req.CommissionRate != nil {
		params.CommissionRate = *req.CommissionRate
	}
	if req.DecisionOffsetMinutes != nil {
		params.DecisionOffset = time.Duration(*req.DecisionOffsetMinutes) * time.Minute
	}
	return params, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.requireClient(w, r)
	if !ok {
		return
	}

	list, err := s.manager.ListJobs(clientID)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	clientID, jobID, ok := s.requireJobRequest(w, r)
	if !ok {
		return
	}

	job, err := s.manager.GetJob(jobID, clientID)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	clientID, jobID, ok := s.requireJobRequest(w, r)
	if !ok {
		return
	}

	result, err := s.manager.GetResult(jobID, clientID)
	if err != nil {
		if errors.Is(err, jobs.ErrForbidden) {
			s.audit.LogAccessDenied(clientID, jobID.String())
		}
		s.writeJobError(w, err)
		return
	}

	summaryOnly := r.URL.Query().Get("summary") == "true"
	s.audit.LogResultAccess(clientID, jobID.String(), summaryOnly)
	if summaryOnly {
		s.writeJSON(w, http.StatusOK, result.SummaryOnly())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	clientID, jobID, ok := s.requireJobRequest(w, r)
	if !ok {
		return
	}

	job, err := s.manager.CancelJob(jobID, clientID)
	if err != nil {
		if errors.Is(err, jobs.ErrForbidden) {
			s.audit.LogAccessDenied(clientID, jobID.String())
		}
		s.writeJobError(w, err)
		return
	}
	s.audit.LogJobCancelled(clientID, jobID.String())
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) requireClient(w http.ResponseWriter, r *http.Request) (string, bool) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", clientIDHeader))
		return "", false
	}
	return clientID, true
}

func (s *Server) requireJobRequest(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	clientID, ok := s.requireClient(w, r)
	if !ok {
		return "", uuid.Nil, false
	}
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return "", uuid.Nil, false
	}
	return clientID, jobID, true
}

// writeJobError maps manager errors onto HTTP status codes
func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		s.writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrForbidden):
		s.writeError(w, http.StatusForbidden, "job belongs to another client")
	case errors.Is(err, jobs.ErrResultNotReady):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, jobs.ErrResultExpired):
		s.writeError(w, http.StatusGone, "job result has expired")
	case errors.Is(err, jobs.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, jobs.ErrTooManyActiveJobs):
		s.writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		// validation and compile failures reach here from CreateJob
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
