package api

import (
	"errors"
	"net/http"

	"catalogsync/internal/bulk"
	"catalogsync/internal/cache"
	"catalogsync/internal/logging"
	"catalogsync/internal/omdb"
	"catalogsync/internal/services"
)

type importRequest struct {
	ExternalID string `json:"externalId"`
	Quality    string `json:"quality,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Importer.Import(r.Context(), req.ExternalID, req.Quality)
	if err != nil {
		status := services.HTTPStatus(err)
		detail := ""
		var perr *omdb.ProviderError
		if errors.As(err, &perr) {
			detail = perr.Message
		}
		if status >= http.StatusInternalServerError {
			logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "import failed", "import_failed",
				logging.String(logging.FieldExternalID, req.ExternalID),
				logging.Int("status", status),
				logging.Error(err),
			)
		}
		s.writeError(w, status, importMessage(status), detailOrError(detail, err))
		return
	}
	if s.deps.Cache != nil {
		if n, err := s.deps.Cache.Invalidate(cache.Key("title", result.ExternalID)); err == nil {
			s.deps.Metrics.AddCacheInvalidations(n)
		}
	}
	s.writeJSON(w, http.StatusOK, result)
}

func importMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid import request"
	case http.StatusNotFound:
		return "title not found"
	case http.StatusUnprocessableEntity:
		return "provider rejected the request"
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "provider temporarily unavailable"
	default:
		return "import failed"
	}
}

func detailOrError(detail string, err error) string {
	if detail != "" {
		return detail
	}
	return err.Error()
}

func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Bulk == nil {
		s.writeError(w, http.StatusServiceUnavailable, "bulk import unavailable", "")
		return
	}
	var req bulk.Request
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.deps.Bulk.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), "invalid bulk request", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}
