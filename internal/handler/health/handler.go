package health

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/store"
)

type Handler struct {
	store store.Store
}

func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck probes the backing store. A missing probe key is fine; only a
// transport failure counts as DOWN.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	_, err := h.store.Read(c.Request.Context(), "healthcheck")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "store connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
