package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/middleware"
	"github.com/jengzang/webgis-dashboard/internal/session"
	"github.com/jengzang/webgis-dashboard/internal/view"
	"github.com/jengzang/webgis-dashboard/pkg/response"
)

// SessionResponse is a session's token plus its current state
type SessionResponse struct {
	Token string     `json:"token"`
	Seq   uint64     `json:"seq"`
	State view.State `json:"state"`
}

// FilterRequest selects a brand
type FilterRequest struct {
	Brand string `json:"brand" binding:"required"`
}

// SessionHandler handles HTTP requests that drive a session's view controller
type SessionHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{Token: s.Token(), Seq: s.Controller.Seq(), State: s.Controller.State()}
}

// Create handles POST /api/v1/session
func (h *SessionHandler) Create(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to create session", err)
		return
	}
	c.Writer.Header().Set(middleware.SessionHeader, s.Token())
	response.Success(c, sessionResponse(s))
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(c *gin.Context) {
	response.Success(c, sessionResponse(middleware.CurrentSession(c)))
}

// UpdateView handles PUT /api/v1/session/view
func (h *SessionHandler) UpdateView(c *gin.Context) {
	var req view.ViewState
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid view state", err)
		return
	}

	s := middleware.CurrentSession(c)
	if _, err := s.Controller.MoveCamera(req); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, sessionResponse(s))
}

// ResetView handles POST /api/v1/session/view/reset
func (h *SessionHandler) ResetView(c *gin.Context) {
	s := middleware.CurrentSession(c)
	s.Controller.ResetCamera()
	response.Success(c, sessionResponse(s))
}

// SetFilter handles PUT /api/v1/session/filter
func (h *SessionHandler) SetFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid filter", err)
		return
	}

	s := middleware.CurrentSession(c)
	if _, err := s.Controller.SelectBrand(req.Brand); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, sessionResponse(s))
}

// ResetFilter handles DELETE /api/v1/session/filter
func (h *SessionHandler) ResetFilter(c *gin.Context) {
	s := middleware.CurrentSession(c)
	s.Controller.ResetFilter()
	response.Success(c, sessionResponse(s))
}

// SetLayers handles PUT /api/v1/session/layers
func (h *SessionHandler) SetLayers(c *gin.Context) {
	var req view.LayerVisibility
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid layer visibility", err)
		return
	}

	s := middleware.CurrentSession(c)
	s.Controller.SetLayers(req)
	response.Success(c, sessionResponse(s))
}

// Stream handles GET /api/v1/session/ws
func (h *SessionHandler) Stream(c *gin.Context) {
	s := middleware.CurrentSession(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, c.Writer.Header())
	if err != nil {
		// Upgrade has already written the HTTP error
		return
	}
	defer conn.Close()

	l := logger.FromContext(c.Request.Context())
	l.Debug("session stream opened", zap.String("session", s.ID))
	if err := session.Stream(conn, s.Controller); err != nil {
		l.Debug("session stream closed", zap.String("session", s.ID), zap.Error(err))
	}
}
