package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catgallery/pkg/domain"
)

const (
	msgListFailed  = "DB query error"
	msgWriteFailed = "Query error"
)

// pathID extracts the single segment after prefix. ok is false when the
// path has further segments.
func pathID(path, prefix string) (string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

// requireCatalogWriter gates catalog writes behind a token when configured.
func (s *Server) requireCatalogWriter(w http.ResponseWriter, r *http.Request) bool {
	if !s.protectCatalog {
		return true
	}
	_, ok := s.authorize(w, r)
	return ok
}

func (s *Server) handleCats(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		cats, err := s.app.ListCats(r.Context(), domain.CatFilter{Search: q.Get("search"), Tag: q.Get("tag")})
		if err != nil {
			internalError(w, r, msgListFailed, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(cats))
	case http.MethodPost:
		if !s.requireCatalogWriter(w, r) {
			return
		}
		var fields domain.CatFields
		if err := decodeJSON(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		cat, err := s.app.CreateCat(r.Context(), fields)
		if err != nil {
			internalError(w, r, msgWriteFailed, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCatByID(w http.ResponseWriter, r *http.Request) {
	raw, ok := pathID(r.URL.Path, "/cats/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		id, err := parseID(raw)
		if err != nil {
			internalError(w, r, msgListFailed, err)
			return
		}
		cats, err := s.app.GetCat(r.Context(), id)
		if err != nil {
			internalError(w, r, msgListFailed, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	case http.MethodPut:
		if !s.requireCatalogWriter(w, r) {
			return
		}
		id, err := parseID(raw)
		if err != nil {
			internalError(w, r, msgWriteFailed, err)
			return
		}
		var fields domain.CatFields
		if err := decodeJSON(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		cat, err := s.app.UpdateCat(r.Context(), id, fields)
		if err != nil {
			internalError(w, r, msgWriteFailed, err)
			return
		}
		// a missing cat renders as null
		writeJSON(w, http.StatusOK, cat)
	case http.MethodDelete:
		if !s.requireCatalogWriter(w, r) {
			return
		}
		id, err := parseID(raw)
		if err != nil {
			internalError(w, r, msgWriteFailed, err)
			return
		}
		if err := s.app.DeleteCat(r.Context(), id); err != nil {
			internalError(w, r, msgWriteFailed, err)
			return
		}
		writeMessage(w, http.StatusOK, fmt.Sprintf("Record Num :%s deleted successfully", raw))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tags, err := s.app.ListTags(r.Context())
	if err != nil {
		internalError(w, r, msgListFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tags))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
