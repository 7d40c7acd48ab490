package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/middleware"
	"github.com/nwesha/Zcoder/internal/repository"
	"github.com/nwesha/Zcoder/internal/service"
)

type RoomHandler struct {
	rooms *service.RoomService
}

func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type createRoomRequest struct {
	Name            string               `json:"name" binding:"required,max=100"`
	Description     string               `json:"description"`
	Type            domain.RoomType      `json:"type"`
	IsPrivate       bool                 `json:"isPrivate"`
	Password        string               `json:"password"`
	MaxParticipants int                  `json:"maxParticipants"`
	Settings        *domain.RoomSettings `json:"settings"`
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	attrs := service.CreateRoomAttrs{
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		IsPrivate:       req.IsPrivate,
		Password:        req.Password,
		MaxParticipants: req.MaxParticipants,
		Settings:        domain.RoomSettings{AllowCodeSharing: true, AllowChat: true, AutoSave: true},
	}
	if req.Settings != nil {
		attrs.Settings = *req.Settings
	}

	room, err := h.rooms.Create(c.Request.Context(), middleware.UserID(c), attrs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, room)
}

func (h *RoomHandler) List(c *gin.Context) {
	q := repository.RoomListQuery{
		Type:   domain.RoomType(c.Query("type")),
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	rooms, total, err := h.rooms.List(c.Request.Context(), q)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondList(c, rooms, total, q.Page, q.Limit)
}

func (h *RoomHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.rooms.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, room)
}

type joinRoomRequest struct {
	Password string `json:"password"`
}

func (h *RoomHandler) Join(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req joinRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	room, err := h.rooms.Join(c.Request.Context(), id, middleware.UserID(c), req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, room)
}

func (h *RoomHandler) Leave(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rooms.Leave(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "left room"})
}

type updateRoomRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Type        *domain.RoomType     `json:"type"`
	Settings    *domain.RoomSettings `json:"settings"`
}

func (h *RoomHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.rooms.Update(c.Request.Context(), id, middleware.UserID(c), service.UpdateRoomAttrs{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Settings:    req.Settings,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, room)
}

func (h *RoomHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rooms.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "room deleted"})
}

// Mine lists the rooms the caller durably belongs to.
func (h *RoomHandler) Mine(c *gin.Context) {
	rooms, err := h.rooms.UserRooms(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, rooms)
}
