package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/collab"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// cross-origin browser clients are expected; access control happens
	// through the token handshake, not the Origin header
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler authenticates and upgrades realtime connections.
type WSHandler struct {
	auth *collab.Authenticator
	co   *collab.Coordinator
}

func NewWSHandler(auth *collab.Authenticator, co *collab.Coordinator) *WSHandler {
	return &WSHandler{auth: auth, co: co}
}

func (h *WSHandler) Register(r *gin.Engine) {
	r.GET("/ws", h.Serve)
}

// Serve rejects unauthenticated upgrade attempts before any session state
// exists, then hands the connection to the coordinator.
func (h *WSHandler) Serve(c *gin.Context) {
	user, err := h.auth.Authenticate(c.Request.Context(), collab.TokenFromRequest(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("websocket upgrade: %v", err)
		return
	}
	collab.ServeConn(c.Request.Context(), h.co, conn, user)
}
