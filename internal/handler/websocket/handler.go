// Package websocket upgrades authenticated HTTP requests into live
// collaborative connections.
package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/collab"
	"github.com/nwesha/Zcoder/internal/middleware"
	"github.com/nwesha/Zcoder/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Token auth happens before the upgrade; origins are not restricted.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	binder *collab.Binder
	users  *service.UserService
	log    *logrus.Logger
}

func NewHandler(binder *collab.Binder, users *service.UserService, log *logrus.Logger) *Handler {
	if binder == nil || users == nil || log == nil {
		panic("websocket: NewHandler requires non-nil dependencies")
	}
	return &Handler{binder: binder, users: users, log: log}
}

// Serve upgrades the request and pumps the connection until it closes. The
// connection arrives authenticated; binding to a room happens later via
// join-room.
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := collab.NewClient(conn, user.Ref(), h.binder, h.log)
	h.log.WithFields(logrus.Fields{"user_id": userID, "conn_id": client.ID()}).Info("websocket connected")
	client.Run(c.Request.Context())
	h.log.WithFields(logrus.Fields{"user_id": userID, "conn_id": client.ID()}).Info("websocket disconnected")
}
