package server

import (
	"errors"
	"net/http"

	"catgallery/pkg/domain"
	"catgallery/services/gallery/internal/app"
)

type countResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleAdopt(w http.ResponseWriter, r *http.Request, user domain.PublicUser) {
	raw, ok := pathID(r.URL.Path, "/adopt/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		catID, err := parseID(raw)
		if err != nil {
			internalError(w, r, "Error adopting cat", err)
			return
		}
		err = s.app.Adopt(r.Context(), user.ID, catID)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "Cat adopted successfully!")
		case errors.Is(err, app.ErrCatNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, app.ErrAlreadyAdopted):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			internalError(w, r, "Error adopting cat", err)
		}
	case http.MethodDelete:
		catID, err := parseID(raw)
		if err != nil {
			internalError(w, r, "Error removing adoption", err)
			return
		}
		err = s.app.Unadopt(r.Context(), user.ID, catID)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "Adoption removed successfully!")
		case errors.Is(err, app.ErrAdoptionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			internalError(w, r, "Error removing adoption", err)
		}
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdoptions(w http.ResponseWriter, r *http.Request, user domain.PublicUser) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	cats, err := s.app.ListAdoptions(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, msgWriteFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (s *Server) handleAdoptionCount(w http.ResponseWriter, r *http.Request, user domain.PublicUser) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	n, err := s.app.CountAdoptions(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, msgWriteFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}
