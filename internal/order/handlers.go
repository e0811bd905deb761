package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the read-side projections: order history and single
// order detail, always scoped to the requesting buyer.
type Handler struct {
	repo Repository
	log  *zap.Logger
}

func NewHandler(repo Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/orders", h.listOrders)
	r.GET("/orders/:number", h.getOrder)
}

func buyerID(c *gin.Context) (string, bool) {
	uid := c.GetHeader("X-Clerk-User-ID")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in required"})
		return "", false
	}
	return uid, true
}

func (h *Handler) listOrders(c *gin.Context) {
	uid, ok := buyerID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.repo.ListByUser(c.Request.Context(), uid, limit, offset)
	if err != nil {
		h.log.Error("list orders failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	uid, ok := buyerID(c)
	if !ok {
		return
	}

	o, items, err := h.repo.GetByNumberForUser(c.Request.Context(), c.Param("number"), uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		h.log.Error("get order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if items == nil {
		items = []Item{}
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
}
