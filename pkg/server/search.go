package server

import (
	"net/http"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/search"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// searchLimit caps the number of ranked results per query.
const searchLimit = 10

type SearchHandler struct {
	index  search.Index
	logger logging.Logger
}

func NewSearchHandler(index search.Index, logger logging.Logger) *SearchHandler {
	return &SearchHandler{
		index:  index,
		logger: logger,
	}
}

func (h *SearchHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireUser)

	r.Get("/", h.Search)

	return r
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		renderError(w, r, http.StatusBadRequest, "Missing query parameter")
		return
	}

	results, err := h.index.Search(r.Context(), query, searchLimit)
	if err != nil {
		h.logger.Log("Error while searching posts", "query", query, "err", err)
		renderError(w, r, http.StatusInternalServerError, "Error while searching posts")
		return
	}

	render.JSON(w, r, results)
}
