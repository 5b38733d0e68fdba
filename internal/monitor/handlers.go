package monitor

import (
	"github.com/gin-gonic/gin"

	"github.com/Sribabu-Mandraju/polymarket-bot/pkg/response"
)

// GinHandlers contains HTTP handlers for starting and stopping market
// watches on behalf of a session.
type GinHandlers struct {
	supervisor *Supervisor
}

func NewGinHandlers(supervisor *Supervisor) *GinHandlers {
	return &GinHandlers{supervisor: supervisor}
}

type watchRequest struct {
	MarketID string `json:"market_id" binding:"required"`
	TokenID  string `json:"token_id"`
}

// StartWatchHandler handles POST requests to begin monitoring a market.
// Updates are delivered to the requesting session.
func (h *GinHandlers) StartWatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "" {
			response.BadRequest(c, "Session ID is required")
			return
		}

		var req watchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		watchID := h.supervisor.StartWatch(sessionID, req.MarketID, req.TokenID)
		if watchID == "" {
			response.Conflict(c, "Market is already being watched")
			return
		}
		response.Success(c, gin.H{"watch_id": watchID, "market_id": req.MarketID})
	}
}

// StopWatchHandler handles POST requests to stop a market watch.
func (h *GinHandlers) StopWatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req watchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if !h.supervisor.StopWatch(req.MarketID) {
			response.NotFound(c, "No watch running for this market")
			return
		}
		response.Success(c, gin.H{"market_id": req.MarketID, "stopped": true})
	}
}
