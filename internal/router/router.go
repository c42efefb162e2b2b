package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	adminhandler "github.com/swasthgram/health-api/internal/handler/admin"
	authhandler "github.com/swasthgram/health-api/internal/handler/auth"
	consultationhandler "github.com/swasthgram/health-api/internal/handler/consultation"
	geohandler "github.com/swasthgram/health-api/internal/handler/geo"
	healthhandler "github.com/swasthgram/health-api/internal/handler/health"
	notificationhandler "github.com/swasthgram/health-api/internal/handler/notification"
	promhandler "github.com/swasthgram/health-api/internal/handler/prometheus"
	reporthandler "github.com/swasthgram/health-api/internal/handler/report"
	userhandler "github.com/swasthgram/health-api/internal/handler/user"
	"github.com/swasthgram/health-api/internal/middleware"
	"github.com/swasthgram/health-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	Mode       string
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	authH   *authhandler.Handler
	reportH *reporthandler.Handler
	consH   *consultationhandler.Handler
	notifH  *notificationhandler.Handler
	adminH  *adminhandler.Handler
	userH   *userhandler.Handler
	geoH    *geohandler.Handler
	healthH *healthhandler.Handler
	promH   *promhandler.Handler
}

func New(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	reportH *reporthandler.Handler,
	consH *consultationhandler.Handler,
	notifH *notificationhandler.Handler,
	adminH *adminhandler.Handler,
	userH *userhandler.Handler,
	geoH *geohandler.Handler,
	healthH *healthhandler.Handler,
	promH *promhandler.Handler,
	logger zerolog.Logger,
	config Config,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := model.RegisterValidators(v); err != nil {
			logger.Warn().Err(err).Msg("failed to register domain validators")
		}
	}

	r := &Router{
		engine:  engine,
		auth:    auth,
		authH:   authH,
		reportH: reportH,
		consH:   consH,
		notifH:  notifH,
		adminH:  adminH,
		userH:   userH,
		geoH:    geoH,
		healthH: healthH,
		promH:   promH,
	}

	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		promH.Middleware(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.promH.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.authH.RegisterProtectedRoutes(protected)
	r.userH.RegisterRoutes(protected)
	r.reportH.RegisterRoutes(protected)
	r.consH.RegisterRoutes(protected)
	r.notifH.RegisterRoutes(protected)
	r.geoH.RegisterRoutes(protected)

	adminOnly := protected.Group("")
	adminOnly.Use(r.auth.RequireRole(model.RoleAdmin))
	r.adminH.RegisterRoutes(adminOnly)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
