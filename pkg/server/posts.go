package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/service"
	"github.com/driftline/driftline/pkg/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type PostHandler struct {
	posts  service.Posts
	logger logging.Logger
}

func NewPostHandler(posts service.Posts, logger logging.Logger) *PostHandler {
	return &PostHandler{
		posts:  posts,
		logger: logger,
	}
}

func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireUser)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{postId}", h.Get)
	r.Delete("/{postId}", h.Delete)

	return r
}

type createPostRequest struct {
	Body      string   `json:"body"`
	MediaRefs []string `json:"mediaRefs"`
}

type createPostResponse struct {
	Success bool   `json:"success"`
	PostId  string `json:"postId"`
	Message string `json:"message"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.posts.Create(r.Context(), UserId(r.Context()), req.Body, req.MediaRefs)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrBodyTooShort), errors.Is(err, entity.ErrBodyTooLong):
			renderError(w, r, http.StatusBadRequest, err.Error())
		default:
			h.logger.Log("Error creating post", "err", err)
			renderError(w, r, http.StatusInternalServerError, "Error creating post")
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, createPostResponse{
		Success: true,
		PostId:  post.Id,
		Message: "Post created successfully",
	})
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.posts.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Log("Error fetching posts", "err", err)
		renderError(w, r, http.StatusInternalServerError, "Error fetching posts")
		return
	}

	render.JSON(w, r, result)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			renderError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Log("Error fetching post", "err", err)
		renderError(w, r, http.StatusInternalServerError, "Error fetching post")
		return
	}

	render.JSON(w, r, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.posts.Delete(r.Context(), chi.URLParam(r, "postId"), UserId(r.Context()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			renderError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Log("Error deleting post", "err", err)
		renderError(w, r, http.StatusInternalServerError, "Error deleting post")
		return
	}

	renderMessage(w, r, http.StatusOK, "Post deleted successfully")
}
