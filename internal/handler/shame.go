package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"choreboard/internal/auth"
	"choreboard/internal/clock"
	"choreboard/internal/imagestore"
	"choreboard/internal/model"
	"choreboard/internal/store"
)

// maxImageSize caps shame wall uploads at 10 MiB.
const maxImageSize = 10 << 20

type ShameHandler struct {
	posts  *store.ShameStore
	images *imagestore.Store
	clk    clock.Clock
	logger *slog.Logger
}

func NewShameHandler(ps *store.ShameStore, img *imagestore.Store, clk clock.Clock, logger *slog.Logger) *ShameHandler {
	return &ShameHandler{posts: ps, images: img, clk: clk, logger: logger}
}

// Create accepts a multipart form with an "image" file and a "comment" field.
func (h *ShameHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.images.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	key, err := h.images.Put(r.Context(), file, header.Size, contentType)
	if err != nil {
		h.logger.Error("upload image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload image")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	post, err := h.posts.Create(ac.HouseID, ac.UserID, key, strings.TrimSpace(r.FormValue("comment")), h.clk.Now())
	if err != nil {
		h.logger.Error("create shame post", "error", err)
		if delErr := h.images.Delete(r.Context(), key); delErr != nil {
			h.logger.Warn("clean up orphaned image", "key", key, "error", delErr)
		}
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// List returns the active house's wall, newest first.
func (h *ShameHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListByHouse(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list shame posts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	if posts == nil {
		posts = []model.ShamePost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// Disapprove bumps the post's disapproval counter.
func (h *ShameHandler) Disapprove(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postInHouse(w, r)
	if !ok {
		return
	}

	count, err := h.posts.Disapprove(post.ID)
	if err != nil {
		h.logger.Error("disapprove post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to disapprove")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"disapproval_count": count})
}

// Image streams the post's image from object storage.
func (h *ShameHandler) Image(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postInHouse(w, r)
	if !ok {
		return
	}

	body, contentType, err := h.images.Get(r.Context(), post.ImageKey)
	if err != nil {
		h.logger.Error("fetch image", "key", post.ImageKey, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch image")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream image", "key", post.ImageKey, "error", err)
	}
}

// Delete removes a post. Authors can delete their own; admins can delete any.
func (h *ShameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postInHouse(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if post.UserID != ac.UserID && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "only the author or an admin can delete a post")
		return
	}

	if err := h.posts.Delete(post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		h.logger.Error("delete post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}
	if err := h.images.Delete(r.Context(), post.ImageKey); err != nil {
		h.logger.Warn("delete image", "key", post.ImageKey, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShameHandler) postInHouse(w http.ResponseWriter, r *http.Request) (*model.ShamePost, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	post, err := h.posts.GetByID(id)
	if err != nil {
		h.logger.Error("get shame post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load post")
		return nil, false
	}
	if post == nil || post.HouseID != auth.HouseID(r.Context()) {
		writeError(w, http.StatusNotFound, "post not found")
		return nil, false
	}
	return post, true
}
