package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Handler registers its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AuthHandler splits its surface between the public group and the
// authenticated group.
type AuthHandler interface {
	RegisterPublicRoutes(*gin.RouterGroup)
	RegisterProtectedRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS         float64
	RateLimitBurst       int
	CORSConfig           middleware.CORSConfig
	ReimbursementEnabled bool
}

type Router struct {
	engine         *gin.Engine
	auth           *middleware.AuthMiddleware
	authH          AuthHandler
	healthH        Handler
	departmentH    Handler
	doctorH        Handler
	availabilityH  Handler
	appointmentH   Handler
	reimbursementH Handler
	config         Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH AuthHandler,
	healthH Handler,
	departmentH Handler,
	doctorH Handler,
	availabilityH Handler,
	appointmentH Handler,
	reimbursementH Handler,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.Metrics(m),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:         engine,
		auth:           auth,
		authH:          authH,
		healthH:        healthH,
		departmentH:    departmentH,
		doctorH:        doctorH,
		availabilityH:  availabilityH,
		appointmentH:   appointmentH,
		reimbursementH: reimbursementH,
		config:         config,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	{
		r.authH.RegisterProtectedRoutes(protected)
		r.departmentH.RegisterRoutes(protected)
		r.doctorH.RegisterRoutes(protected)
		r.availabilityH.RegisterRoutes(protected)
		r.appointmentH.RegisterRoutes(protected)

		// Reimbursement stays off the surface entirely when disabled.
		claims := protected.Group("")
		claims.Use(middleware.RequireFeature(r.config.ReimbursementEnabled, "reimbursement"))
		r.reimbursementH.RegisterRoutes(claims)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
