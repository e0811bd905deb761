package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	repo Repository
	log  *zap.Logger
}

func NewHandler(repo Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/products", h.listProducts)
	r.GET("/products/:slug", h.getProduct)
	r.GET("/stock", h.getStock)
}

func (h *Handler) listProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	q := Query{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Limit:    limit,
		Offset:   offset,
	}

	items, err := h.repo.List(c.Request.Context(), q)
	if err != nil {
		h.log.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if items == nil {
		items = []Product{}
	}
	c.JSON(http.StatusOK, ListResponse{
		Q: q.Q, Category: q.Category, Brand: q.Brand,
		Limit: limit, Offset: offset, Items: items,
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.log.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// getStock serves the stock oracle to the cart UI and the
// pre-checkout reconciliation step: GET /stock?ids=a,b,c
func (h *Handler) getStock(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("ids"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
		return
	}
	ids := strings.Split(raw, ",")

	stock, err := h.repo.StockByIDs(c.Request.Context(), ids)
	if err != nil {
		h.log.Error("stock query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}
