package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/user"
	"github.com/swasthgram/health-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/doctors", h.ListDoctors)
		users.GET("/:id", h.Get)
	}
}

// ListDoctors returns the doctor directory any authenticated user may browse
// when choosing whom to appoint.
func (h *Handler) ListDoctors(c *gin.Context) {
	doctors := []model.User{}
	for _, u := range h.service.List(c.Request.Context()) {
		if u.Role == model.RoleDoctor {
			doctors = append(doctors, u)
		}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, doctors)
}

func (h *Handler) Get(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, u)
}
