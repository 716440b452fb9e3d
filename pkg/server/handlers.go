package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/server/middleware"
)

// EstimateResponse is returned by POST /v1/estimate.
type EstimateResponse struct {
	Tokens        int   `json:"tokens"`
	Bytes         int64 `json:"bytes"`
	CharsPerToken int   `json:"chars_per_token"`
}

// ResourcePage is returned by GET /v1/resources/{id}. Limit is the number
// of payload bytes in Data; pages end on rune boundaries so the next page
// starts at Offset+Limit.
type ResourcePage struct {
	URI    string `json:"uri"`
	Offset int64  `json:"offset"`
	Limit  int64  `json:"limit"`
	Total  int64  `json:"total"`
	More   bool   `json:"more"`
	Data   string `json:"data"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
			return
		}
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, EstimateResponse{
		Tokens:        s.deps.Estimator.Estimate(v),
		Bytes:         int64(len(body)),
		CharsPerToken: s.deps.Estimator.CharsPerToken(),
	})
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	if path := q.Get("path"); path != "" {
		raw, err := offload.Query(r.Context(), s.deps.Store, id, path)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return
	}

	offset, err := int64Param(q.Get("offset"))
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_offset", err.Error())
		return
	}
	limit, err := int64Param(q.Get("limit"))
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	page, err := offload.RetrieveRange(r.Context(), s.deps.Store, id, offset, limit)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResourcePage{
		URI:    page.URI,
		Offset: page.Offset,
		Limit:  page.Limit,
		Total:  page.Total,
		More:   page.More,
		Data:   string(page.Data),
	})
}

func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, offload.ErrNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, offload.ErrPathNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, "path_not_found", err.Error())
	case errors.Is(err, offload.ErrInvalidHandle):
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_handle", err.Error())
	case errors.Is(err, offload.ErrNotJSON):
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, "not_json", err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "resource store error", "error", err)
		middleware.WriteError(w, r, http.StatusInternalServerError, "storage_error", "resource store unavailable")
	}
}

func int64Param(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must be non-negative")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
