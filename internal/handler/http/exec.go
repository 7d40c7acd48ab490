package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nwesha/Zcoder/internal/service"
)

type ExecHandler struct {
	exec *service.ExecService
}

func NewExecHandler(exec *service.ExecService) *ExecHandler {
	return &ExecHandler{exec: exec}
}

type executeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
}

// Execute forwards code to the remote sandbox and relays the outcome.
func (h *ExecHandler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.exec.Execute(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
