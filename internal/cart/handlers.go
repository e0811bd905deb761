package cart

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petherEm/gibbarosa-io-v-1/internal/catalog"
)

type Handler struct {
	store    Store
	products catalog.Repository
	log      *zap.Logger
}

func NewHandler(store Store, products catalog.Repository, log *zap.Logger) *Handler {
	return &Handler{store: store, products: products, log: log}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/cart", h.getCart)
	r.POST("/cart/items", h.addItem)
	r.DELETE("/cart/items/:productId", h.removeItem)
	r.DELETE("/cart", h.clearCart)
}

// cartID resolves the cart key: signed-in buyers use their external
// auth id, guests get a generated id echoed back in X-Cart-ID.
func cartID(c *gin.Context) string {
	if uid := c.GetHeader("X-Clerk-User-ID"); uid != "" {
		return uid
	}
	if cid := c.GetHeader("X-Cart-ID"); cid != "" {
		return cid
	}
	cid := uuid.NewString()
	c.Writer.Header().Set("X-Cart-ID", cid)
	return cid
}

type cartResponse struct {
	ID        string `json:"id"`
	Lines     []Line `json:"lines"`
	ItemCount int    `json:"item_count"`
	Subtotal  string `json:"subtotal"`
}

func toResponse(cart *Cart) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []Line{}
	}
	return cartResponse{
		ID:        cart.ID,
		Lines:     lines,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal().StringFixed(2),
	}
}

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.store.Get(c.Request.Context(), cartID(c))
	if err != nil {
		h.log.Error("cart load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toResponse(cart))
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	// Snapshot display fields from the catalog; they are cached on the
	// line but never trusted at checkout time.
	p, err := h.products.GetByID(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.log.Error("product lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	cart, err := h.store.Get(c.Request.Context(), cartID(c))
	if err != nil {
		h.log.Error("cart load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	cart.AddLine(Line{
		ProductID: p.ID,
		Quantity:  req.Quantity,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.ImageURL,
	})
	if err := h.store.Put(c.Request.Context(), cart); err != nil {
		h.log.Error("cart save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toResponse(cart))
}

func (h *Handler) removeItem(c *gin.Context) {
	cart, err := h.store.Get(c.Request.Context(), cartID(c))
	if err != nil {
		h.log.Error("cart load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	cart.RemoveLine(c.Param("productId"))
	if err := h.store.Put(c.Request.Context(), cart); err != nil {
		h.log.Error("cart save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toResponse(cart))
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), cartID(c)); err != nil {
		h.log.Error("cart clear failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
