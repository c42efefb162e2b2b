package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/middleware"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/notification"
	"github.com/swasthgram/health-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.DELETE("", h.ClearAll)
	}
}

func (h *Handler) List(c *gin.Context) {
	u := middleware.CurrentUser(c)
	ns := h.service.List(c.Request.Context(), u.ID)
	if ns == nil {
		ns = []model.AppNotification{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ns)
}

func (h *Handler) MarkRead(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.service.MarkRead(c.Request.Context(), u.ID, c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "notification marked read"})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.service.MarkAllRead(c.Request.Context(), u.ID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "all notifications marked read"})
}

func (h *Handler) ClearAll(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.service.ClearAll(c.Request.Context(), u.ID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "notifications cleared"})
}
