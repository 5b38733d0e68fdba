package session

import (
	"github.com/gin-gonic/gin"

	"github.com/Sribabu-Mandraju/polymarket-bot/pkg/response"
)

// ScanControl starts and stops the per-session scan loops. Implemented by the
// scanner supervisor.
type ScanControl interface {
	Start(sessionID string)
	Stop(sessionID string)
}

// GinHandlers contains HTTP handlers for the session configuration surface.
type GinHandlers struct {
	service *Service
	scans   ScanControl
}

func NewGinHandlers(service *Service, scans ScanControl) *GinHandlers {
	return &GinHandlers{service: service, scans: scans}
}

// GetConfigHandler handles GET requests for a session's configuration,
// creating the session with defaults when it does not exist yet.
func (h *GinHandlers) GetConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "" {
			response.BadRequest(c, "Session ID is required")
			return
		}

		sess, err := h.service.Get(sessionID)
		response.Handle(c, sess, err)
	}
}

// SetConfigHandler handles PUT requests applying a partial configuration
// patch. Out-of-range values are rejected without touching the session.
func (h *GinHandlers) SetConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "" {
			response.BadRequest(c, "Session ID is required")
			return
		}

		var patch ConfigPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		sess, err := h.service.Update(sessionID, patch)
		response.Handle(c, sess, err)
	}
}

// StartScanHandler enables scanning for the session and spawns its loop.
func (h *GinHandlers) StartScanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "" {
			response.BadRequest(c, "Session ID is required")
			return
		}

		sess, err := h.service.SetScanActive(sessionID, true)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		h.scans.Start(sessionID)
		response.Success(c, sess)
	}
}

// StopScanHandler disables scanning; the loop exits at its next iteration
// boundary.
func (h *GinHandlers) StopScanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "" {
			response.BadRequest(c, "Session ID is required")
			return
		}

		sess, err := h.service.SetScanActive(sessionID, false)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		h.scans.Stop(sessionID)
		response.Success(c, sess)
	}
}
