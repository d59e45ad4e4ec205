package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/inventory"
	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/view"
)

func (s *server) listCards(w http.ResponseWriter, r *http.Request) {
	q, err := view.ParseQuery(r.URL.Query())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := s.inv.List(r.Context(), q)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) getCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.inv.Get(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

func (s *server) createCard(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if err := decodeRequiredJSON(r, &card); err != nil {
		respondErr(w, r, err)
		return
	}
	created, err := s.inv.Create(r.Context(), card)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *server) replaceCard(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if err := decodeRequiredJSON(r, &card); err != nil {
		respondErr(w, r, err)
		return
	}
	updated, err := s.inv.Replace(r.Context(), chi.URLParam(r, "cardID"), card)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *server) scanCard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart form with images")
		return
	}
	images, err := readImages(r.MultipartForm.File["images"])
	if err != nil {
		respondErr(w, r, err)
		return
	}

	out, err := s.inv.Scan(r.Context(), inventory.ScanInput{
		Images:     images,
		Strictness: model.Strictness(r.FormValue("strictness")),
		Feedback:   r.FormValue("feedback"),
		Model:      r.FormValue("model"),
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

type regradeRequest struct {
	Feedback   string           `json:"feedback"`
	Strictness model.Strictness `json:"strictness"`
	Model      string           `json:"model"`
}

func (s *server) regradeCard(w http.ResponseWriter, r *http.Request) {
	var req regradeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	out, err := s.inv.Regrade(r.Context(), chi.URLParam(r, "cardID"), inventory.RegradeInput{
		Feedback:   req.Feedback,
		Strictness: req.Strictness,
		Model:      req.Model,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) generateListing(w http.ResponseWriter, r *http.Request) {
	out, err := s.inv.GenerateListing(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

type marketResponse struct {
	Card    *model.Card `json:"card"`
	Fetched bool        `json:"fetched"`
}

func (s *server) marketData(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	card, fetched, err := s.inv.MarketData(r.Context(), chi.URLParam(r, "cardID"), force)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, marketResponse{Card: card, Fetched: fetched})
}

type bulkRequest struct {
	IDs    []string     `json:"ids"`
	Status model.Status `json:"status,omitempty"`
}

func (s *server) bulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := s.inv.BulkUpdateStatus(r.Context(), req.IDs, req.Status)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) bulkListings(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := s.inv.BulkGenerateListings(r.Context(), req.IDs)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func readImages(files []*multipart.FileHeader) ([]inference.Image, error) {
	images := make([]inference.Image, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		mime := fh.Header.Get("Content-Type")
		if mime == "" || mime == "application/octet-stream" {
			mime = http.DetectContentType(data)
		}
		images = append(images, inference.Image{MIMEType: mime, Data: data})
	}
	return images, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "api: open upload %s", fh.Filename)
	}
	defer f.Close() //nolint:errcheck
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, eris.Wrapf(err, "api: read upload %s", fh.Filename)
	}
	return data, nil
}
