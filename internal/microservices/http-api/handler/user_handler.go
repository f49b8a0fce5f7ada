package handler

import (
	"context"
	"net/http"
	"time"

	"afriotv/internal/microservices/http-api/dto"
	"afriotv/internal/microservices/http-api/middleware"
	"afriotv/internal/microservices/http-api/service"
	"afriotv/internal/storage"

	"github.com/gin-gonic/gin"
)

// UserHandler serves users/{uid} and its watchlist.
type UserHandler struct {
	profiles  service.ProfileService
	watchlist service.WatchlistService
}

func NewUserHandler(profiles service.ProfileService, watchlist service.WatchlistService) *UserHandler {
	return &UserHandler{profiles: profiles, watchlist: watchlist}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:uid", h.GetProfile)
	rg.PATCH("/:uid", h.UpdateProfile)
	rg.POST("/:uid/avatar", h.UploadAvatar)
	rg.GET("/:uid/watchlist", h.ListWatchlist)
	rg.POST("/:uid/watchlist", h.AddToWatchlist)
	rg.DELETE("/:uid/watchlist/:entryId", h.RemoveFromWatchlist)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.profiles.Get(ctx, middleware.Caller(c), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(u))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.profiles.Update(ctx, middleware.Caller(c), c.Param("uid"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(u))
}

// UploadAvatar takes a multipart "file" of at most 5 MB.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxAvatarSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if fh.Size > storage.MaxAvatarSize {
		respondError(c, storage.ErrFileTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	u, err := h.profiles.UploadAvatar(ctx, middleware.Caller(c), c.Param("uid"), fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(u))
}

func (h *UserHandler) ListWatchlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.watchlist.List(ctx, middleware.Caller(c), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WatchlistResponse{Data: list})
}

// AddToWatchlist is idempotent: adding content already on the list
// returns the existing entry with 200.
func (h *UserHandler) AddToWatchlist(c *gin.Context) {
	var req dto.AddWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entry, created, err := h.watchlist.Add(ctx, middleware.Caller(c), c.Param("uid"), req.ContentID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.CreatedResponse{ID: entry.ID})
}

func (h *UserHandler) RemoveFromWatchlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.watchlist.Remove(ctx, middleware.Caller(c), c.Param("uid"), c.Param("entryId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
