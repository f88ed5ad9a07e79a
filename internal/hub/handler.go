package hub

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/session"
)

// Handler exposes the hub over HTTP: the WebSocket upgrade endpoint plus a
// small read-only API for roster introspection.
type Handler struct {
	logger   *zap.Logger
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates the HTTP handler for a hub.
func NewHandler(logger *zap.Logger, hub *Hub) *Handler {
	return &Handler{
		logger: logger.Named("hub.http"),
		hub:    hub,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin: func(*http.Request) bool {
				// sessions are joined by opaque id; origin checks stay
				// with the deployment's reverse proxy
				return true
			},
		},
	}
}

// Register mounts the hub routes.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/ws/:sessionId", h.handleWS)
	r.GET("/api/sessions/:sessionId/participants", h.handleParticipants)
	r.GET("/healthz", h.handleHealthz)
}

func (h *Handler) handleWS(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}

	id := c.Query("participant")
	if id == "" {
		id = uuid.NewString()
	}
	name := c.Query("name")
	if name == "" {
		name = id
	}
	role := session.Role(c.Query("role"))
	if !role.Valid() {
		role = session.RoleParticipant
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.String("session", sessionID),
			zap.Error(err))
		return
	}

	p := session.Participant{
		ID:          id,
		DisplayName: name,
		Status:      session.StatusOnline,
		Role:        role,
	}
	h.hub.ServeConn(c.Request.Context(), sessionID, p, conn)
}

func (h *Handler) handleParticipants(c *gin.Context) {
	sessionID := c.Param("sessionId")
	participants, err := h.hub.Roster(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("roster lookup failed",
			zap.String("session", sessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "roster lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":      sessionID,
		"participants": participants,
		"count":        len(participants),
	})
}

func (h *Handler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
