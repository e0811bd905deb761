package checkout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	oracle    StockOracle
	initiator *Initiator
	log       *zap.Logger
}

func NewHandler(oracle StockOracle, initiator *Initiator, log *zap.Logger) *Handler {
	return &Handler{oracle: oracle, initiator: initiator, log: log}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/checkout/reconcile", h.reconcile)
	r.POST("/checkout/session", h.createSession)
}

type reconcileRequest struct {
	Items []LineInput `json:"items" binding:"required"`
}

func (h *Handler) reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := ReconcileStock(c.Request.Context(), h.oracle, req.Items)
	if err != nil {
		// Fail closed: the UI keeps checkout disabled on 503.
		h.log.Error("stock reconciliation failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock check unavailable"})
		return
	}
	c.JSON(http.StatusOK, report)
}

type sessionRequest struct {
	Items []LineInput `json:"items" binding:"required"`
	Email string      `json:"email"`
}

type sessionResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// createSession has an interactive caller, so failures come back as a
// structured {success:false} result rather than bare status codes.
func (h *Handler) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, sessionResponse{Success: false, Error: err.Error()})
		return
	}

	buyer := Buyer{
		ClerkUserID: c.GetHeader("X-Clerk-User-ID"),
		Email:       req.Email,
		CustomerRef: c.GetHeader("X-Customer-Ref"),
	}

	url, err := h.initiator.CreateSession(c.Request.Context(), req.Items, buyer)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrProductGone), errors.Is(err, ErrInsufficient):
			status = http.StatusConflict
		}
		c.JSON(status, sessionResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Success: true, URL: url})
}
