package server

import (
	"net/http"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/media"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// maxUploadSize bounds multipart uploads.
const maxUploadSize = 32 << 20 // 32 MiB

type MediaHandler struct {
	media  media.Service
	logger logging.Logger
}

func NewMediaHandler(media media.Service, logger logging.Logger) *MediaHandler {
	return &MediaHandler{
		media:  media,
		logger: logger,
	}
}

func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireUser)

	r.Post("/", h.Upload)
	r.Get("/", h.List)

	return r
}

type uploadResponse struct {
	Success bool   `json:"success"`
	MediaId string `json:"mediaId"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "No file found. Please add a file and try again.")
		return
	}
	defer file.Close()

	item, err := h.media.Upload(
		r.Context(),
		UserId(r.Context()),
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		h.logger.Log("Error uploading media", "err", err)
		renderError(w, r, http.StatusInternalServerError, "Error uploading media")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, uploadResponse{
		Success: true,
		MediaId: item.Id,
		URL:     item.URL,
		Message: "Media upload is successful",
	})
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.media.GetByAuthor(r.Context(), UserId(r.Context()))
	if err != nil {
		h.logger.Log("Error fetching media", "err", err)
		renderError(w, r, http.StatusInternalServerError, "Error fetching media")
		return
	}

	render.JSON(w, r, items)
}
