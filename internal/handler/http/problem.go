package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/middleware"
	"github.com/nwesha/Zcoder/internal/repository"
	"github.com/nwesha/Zcoder/internal/service"
)

type ProblemHandler struct {
	problems *service.ProblemService
}

func NewProblemHandler(problems *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

type problemRequest struct {
	Title       string                 `json:"title" binding:"required,max=200"`
	Description string                 `json:"description" binding:"required"`
	Difficulty  domain.Difficulty      `json:"difficulty"`
	Category    domain.ProblemCategory `json:"category"`
	Tags        string                 `json:"tags"`
	StarterCode map[string]string      `json:"starterCode"`
	TestCases   []domain.TestCase      `json:"testCases"`
	IsPublic    *bool                  `json:"isPublic"`
}

func (r problemRequest) attrs() service.ProblemAttrs {
	return service.ProblemAttrs{
		Title:       r.Title,
		Description: r.Description,
		Difficulty:  r.Difficulty,
		Category:    r.Category,
		Tags:        r.Tags,
		StarterCode: r.StarterCode,
		TestCases:   r.TestCases,
		IsPublic:    r.IsPublic,
	}
}

func (h *ProblemHandler) Create(c *gin.Context) {
	var req problemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	problem, err := h.problems.Create(c.Request.Context(), middleware.UserID(c), req.attrs())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, problem)
}

func (h *ProblemHandler) List(c *gin.Context) {
	q := repository.ProblemListQuery{
		Difficulty: domain.Difficulty(c.Query("difficulty")),
		Category:   domain.ProblemCategory(c.Query("category")),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	}
	problems, total, err := h.problems.List(c.Request.Context(), q)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondList(c, problems, total, q.Page, q.Limit)
}

func (h *ProblemHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	problem, err := h.problems.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, problem)
}

func (h *ProblemHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req problemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	problem, err := h.problems.Update(c.Request.Context(), id, middleware.UserID(c), req.attrs())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, problem)
}

func (h *ProblemHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.problems.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "problem deleted"})
}
