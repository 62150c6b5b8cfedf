package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/songzhibin97/masquerade/internal/defi"
	"github.com/songzhibin97/masquerade/internal/marketplace"
	"github.com/songzhibin97/masquerade/internal/pools"
	"github.com/songzhibin97/masquerade/internal/privacy"
)

var errAgentsUnavailable = errors.New("agent store not configured")

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", c.GetString("request_id"), "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, privacy.ErrInvalidInput),
		errors.Is(err, pools.ErrInvalidAmount),
		errors.Is(err, defi.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, privacy.ErrUnknownPrivacyLevel):
		return http.StatusBadRequest, "UNKNOWN_PRIVACY_LEVEL"
	case errors.Is(err, defi.ErrUnknownMarket):
		return http.StatusNotFound, "UNKNOWN_MARKET"
	case errors.Is(err, marketplace.ErrAgentNotFound):
		return http.StatusNotFound, "AGENT_NOT_FOUND"
	case errors.Is(err, pools.ErrTransactionNotFound):
		return http.StatusNotFound, "TRANSACTION_NOT_FOUND"
	case errors.Is(err, errAgentsUnavailable),
		errors.Is(err, pools.ErrSimulatorClosed):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
