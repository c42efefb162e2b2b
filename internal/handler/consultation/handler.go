package consultation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/middleware"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/consultation"
	apperrors "github.com/swasthgram/health-api/pkg/errors"
	"github.com/swasthgram/health-api/pkg/httputil"
)

type Handler struct {
	service *consultation.Service
}

func NewHandler(service *consultation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cons := r.Group("/consultations")
	{
		cons.GET("", h.List)
		cons.GET("/:id", h.Get)
		cons.GET("/:id/messages", h.ListMessages)
		cons.POST("/:id/messages", h.SendMessage)
	}
}

func (h *Handler) List(c *gin.Context) {
	u := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	var cons []model.Consultation
	switch u.Role {
	case model.RoleDoctor:
		cons = h.service.ListForDoctor(ctx, u.ID)
	default:
		cons = h.service.ListForVillager(ctx, u.ID)
	}
	if cons == nil {
		cons = []model.Consultation{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, cons)
}

func (h *Handler) Get(c *gin.Context) {
	cons, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, cons)
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.service.Messages(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, msg)
}
