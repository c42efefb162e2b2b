package geo

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/geo"
	apperrors "github.com/swasthgram/health-api/pkg/errors"
	"github.com/swasthgram/health-api/pkg/httputil"
)

type Handler struct {
	client *geo.Client
}

func NewHandler(client *geo.Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	geoGroup := r.Group("/geo")
	{
		geoGroup.GET("/search", h.Search)
		geoGroup.GET("/reverse", h.Reverse)
	}
}

func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("query parameter q is required", nil))
		return
	}

	loc, err := h.client.Search(c.Request.Context(), query)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if loc == nil {
		httputil.RespondWithError(c, apperrors.NotFound("location", nil))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, loc)
}

func (h *Handler) Reverse(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid lat parameter", err))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid lon parameter", err))
		return
	}

	loc, err := h.client.Reverse(c.Request.Context(), lat, lon)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, loc)
}
