package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"catalogsync/internal/cache"
	"catalogsync/internal/catalog"
	"catalogsync/internal/logging"
	"catalogsync/internal/services"
	"catalogsync/internal/store"
)

type listResponse struct {
	Titles []store.Title `json:"titles"`
}

var orderNamespace = map[store.Order]string{
	store.OrderTitle:    "titles",
	store.OrderLatest:   "latest",
	store.OrderTrending: "trending",
}

func (s *Server) handleListTitles(order store.Order) http.HandlerFunc {
	namespace := orderNamespace[order]
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := catalog.ParseKind(r.URL.Query().Get("kind"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid kind", err.Error())
			return
		}
		limit, ok := s.parseLimit(w, r)
		if !ok {
			return
		}
		s.serveCached(w, r, cache.Key(namespace, kind, limit), func() (any, error) {
			titles, err := s.deps.Reader.ListTitles(r.Context(), store.ListOptions{Kind: kind, Order: order, Limit: limit})
			if err != nil {
				return nil, err
			}
			return listResponse{Titles: nonNil(titles)}, nil
		})
	}
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("imdbID"))
	s.serveCached(w, r, cache.Key("title", id), func() (any, error) {
		return s.deps.Reader.GetTitle(r.Context(), id)
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("imdbID"))
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}
	s.serveCached(w, r, cache.Key("similar", id, limit), func() (any, error) {
		titles, err := s.deps.Reader.SimilarTitles(r.Context(), id, limit)
		if err != nil {
			return nil, err
		}
		return listResponse{Titles: nonNil(titles)}, nil
	})
}

// serveCached answers from the cache when possible, otherwise renders load()
// and caches the encoded body. Errors are never cached.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string, load func() (any, error)) {
	if s.deps.Cache != nil {
		if body, ok := s.deps.Cache.Get(key); ok {
			s.deps.Metrics.ObserveCache(true)
			writeBody(w, body)
			return
		}
		s.deps.Metrics.ObserveCache(false)
	}

	payload, err := load()
	if err != nil {
		status := services.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logging.WithContext(r.Context(), s.logger).Error("catalog read failed",
				logging.String("key", key),
				logging.Error(err),
			)
		}
		s.writeError(w, status, http.StatusText(status), err.Error())
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		s.writeError(w, http.StatusInternalServerError, "encode response", err.Error())
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Set(key, buf.Bytes())
	}
	writeBody(w, buf.Bytes())
}

func writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return store.DefaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
		return 0, false
	}
	return min(limit, store.MaxListLimit), true
}

func nonNil(titles []store.Title) []store.Title {
	if titles == nil {
		return []store.Title{}
	}
	return titles
}
