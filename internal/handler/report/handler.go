package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/middleware"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/report"
	apperrors "github.com/swasthgram/health-api/pkg/errors"
	"github.com/swasthgram/health-api/pkg/httputil"
)

type Handler struct {
	service *report.Service
	authMw  *middleware.AuthMiddleware
}

func NewHandler(service *report.Service, authMw *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMw: authMw}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.POST("", h.authMw.RequireRole(model.RoleVillager), h.Submit)
		reports.GET("", h.List)
		reports.GET("/:id", h.Get)
		reports.DELETE("/:id", h.authMw.RequireRole(model.RoleVillager), h.SoftDelete)

		reports.POST("/:id/responses", h.authMw.RequireRole(model.RoleDoctor), h.Respond)
		reports.POST("/:id/appointment", h.authMw.RequireRole(model.RoleVillager), h.Appoint)
		reports.DELETE("/:id/appointment", h.authMw.RequireRole(model.RoleDoctor), h.DeleteAppointment)
	}
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	created, err := h.service.Submit(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

// List serves each role its own view: villagers their unhidden reports,
// doctors the global pool minus their hidden list, admins everything.
func (h *Handler) List(c *gin.Context) {
	u := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	var reports []model.HealthReport
	switch u.Role {
	case model.RoleVillager:
		reports = h.service.ListForVillager(ctx, u.ID)
	case model.RoleDoctor:
		reports = h.service.ListForDoctor(ctx, u.ID)
	default:
		reports = h.service.ListAll(ctx)
	}
	if reports == nil {
		reports = []model.HealthReport{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, reports)
}

func (h *Handler) Get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	u := middleware.CurrentUser(c)
	if u.Role == model.RoleVillager && r.UserID != u.ID {
		httputil.RespondWithError(c, apperrors.NotFound("report", nil))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, r)
}

func (h *Handler) SoftDelete(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("id"), u.ID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "report hidden"})
}

func (h *Handler) Respond(c *gin.Context) {
	var req model.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	updated, err := h.service.Respond(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, updated)
}

func (h *Handler) Appoint(c *gin.Context) {
	var req model.AppointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	consultation, err := h.service.Appoint(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), req.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, consultation)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	if err := h.service.DeleteAppointment(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "appointment removed"})
}
