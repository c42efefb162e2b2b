package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/service/admin"
	"github.com/swasthgram/health-api/internal/service/user"
	"github.com/swasthgram/health-api/pkg/httputil"
)

type Handler struct {
	service *admin.Service
	userSvc *user.Service
}

func NewHandler(service *admin.Service, userSvc *user.Service) *Handler {
	return &Handler{service: service, userSvc: userSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	adminGroup := r.Group("/admin")
	{
		adminGroup.GET("/stats", h.Stats)
		adminGroup.GET("/users", h.ListUsers)
	}
}

func (h *Handler) Stats(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, h.service.Stats(c.Request.Context()))
}

func (h *Handler) ListUsers(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, h.userSvc.List(c.Request.Context()))
}
