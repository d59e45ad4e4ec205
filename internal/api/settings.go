package api

import (
	"net/http"

	"github.com/cardshop/cardshop/internal/settings"
)

func (s *server) getSettings(w http.ResponseWriter, r *http.Request) {
	set, err := s.settings.Load()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (s *server) putSettings(w http.ResponseWriter, r *http.Request) {
	set := settings.Defaults()
	if err := decodeJSON(r, &set); err != nil {
		respondErr(w, r, err)
		return
	}
	saved, err := s.settings.Save(set)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *server) listModels(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.registry.Tasks())
}

func (s *server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart form with file")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	data, err := readPart(files[0])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	url, err := s.assets.Save(r.Context(), data, files[0].Header.Get("Content-Type"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}
