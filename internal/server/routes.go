package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandlens/brandlens/internal/scan"
	"github.com/brandlens/brandlens/internal/version"
)

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/version", s.handleVersion)

	s.router.Route("/v1/scans", func(r chi.Router) {
		r.Post("/", s.handleStartScan)
		r.Get("/{runID}", s.handleGetScan)
		r.Post("/{runID}/advance", s.handleAdvanceScan)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

type startScanRequest struct {
	AccountID          string `json:"account_id"`
	IncludeCompetitors bool   `json:"include_competitors"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "INVALID_REQUEST", "unable to read request body")
		return
	}

	var req startScanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be valid JSON")
		return
	}
	if req.AccountID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, "INVALID_REQUEST", "account_id is required")
		return
	}

	result, err := s.orchestrator.StartScan(r.Context(), req.AccountID, req.IncludeCompetitors)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type advanceScanRequest struct {
	BatchSize int `json:"batch_size"`
}

func (s *Server) handleAdvanceScan(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	req := advanceScanRequest{BatchSize: s.batchSize}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeErrorCode(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be valid JSON")
			return
		}
		if req.BatchSize == 0 {
			req.BatchSize = s.batchSize
		}
	}

	result, err := s.orchestrator.Advance(r.Context(), runID, req.BatchSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	report, err := scan.BuildReport(r.Context(), s.store, runID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if report == nil {
		writeErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", "run not found")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
