package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/middleware"
	"github.com/nwesha/Zcoder/internal/repository"
	"github.com/nwesha/Zcoder/internal/service"
)

type BookmarkHandler struct {
	bookmarks *service.BookmarkService
}

func NewBookmarkHandler(bookmarks *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

type createBookmarkRequest struct {
	ProblemID uint    `json:"problemId" binding:"required"`
	Tags      *string `json:"tags"`
	Notes     *string `json:"notes"`
	Folder    *string `json:"folder"`
}

func (h *BookmarkHandler) Create(c *gin.Context) {
	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.bookmarks.Create(c.Request.Context(), middleware.UserID(c), req.ProblemID, service.BookmarkAttrs{
		Tags:   req.Tags,
		Notes:  req.Notes,
		Folder: req.Folder,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, b)
}

func (h *BookmarkHandler) List(c *gin.Context) {
	q := repository.BookmarkListQuery{
		UserID:   middleware.UserID(c),
		Folder:   c.Query("folder"),
		Progress: domain.BookmarkProgress(c.Query("progress")),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 20),
	}
	bookmarks, total, err := h.bookmarks.List(c.Request.Context(), q)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondList(c, bookmarks, total, q.Page, q.Limit)
}

func (h *BookmarkHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookmarks.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}

type updateBookmarkRequest struct {
	Tags           *string                  `json:"tags"`
	Notes          *string                  `json:"notes"`
	Progress       *domain.BookmarkProgress `json:"progress"`
	PersonalRating *int                     `json:"personalRating"`
	TimeSpent      *int                     `json:"timeSpent"`
	Folder         *string                  `json:"folder"`
	Attempted      bool                     `json:"attempted"`
}

func (h *BookmarkHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.bookmarks.Update(c.Request.Context(), id, middleware.UserID(c), service.BookmarkAttrs{
		Tags:           req.Tags,
		Notes:          req.Notes,
		Progress:       req.Progress,
		PersonalRating: req.PersonalRating,
		TimeSpent:      req.TimeSpent,
		Folder:         req.Folder,
	}, req.Attempted)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}

func (h *BookmarkHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookmarks.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "bookmark removed"})
}
