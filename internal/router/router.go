package router // package router registers the gateway routes and their guards

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/handler"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/middleware"
	"github.com/iliyamo/carpool-gateway/internal/service"
)

// Deps carries what the route groups need. Redis may be nil, in which
// case rate limiting and the search cache are pass-throughs.
type Deps struct {
	Cfg       config.Config
	Sessions  *service.SessionManager
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       logger.ILogger
}

// guards bundles the middleware shared by the route groups.
type guards struct {
	auth       echo.MiddlewareFunc
	limit      echo.MiddlewareFunc
	cache      echo.MiddlewareFunc
	invalidate echo.MiddlewareFunc
}

func newGuards(d Deps) guards {
	return guards{
		auth:       middleware.JWTAuth(d.Cfg.JWTSecret, d.Sessions),
		limit:      middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		cache:      middleware.NewRedisCache(d.Cache, d.Redis),
		invalidate: middleware.NewCacheInvalidator(d.Cache, d.Redis),
	}
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	g := newGuards(d)
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, d.Sessions, d.Log), g)
	RegisterAccount(e, handler.NewAccountHandler(d.Log), handler.NewStreamHandler(d.Log), g)
	RegisterPassenger(e, handler.NewPassengerHandler(d.Log), g)
	RegisterDriver(e, handler.NewDriverHandler(d.Log), g)
	RegisterAdmin(e, handler.NewAdminHandler(d.Log), g)
}

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers sign in/out and the account endpoints. Login and
// register are rate limited by ip only since no user is known yet.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g guards) {
	pub := e.Group("/v1/auth", g.limit)
	pub.POST("/login", a.Login)
	pub.POST("/register", a.Register)

	auth := e.Group("/v1", g.auth, g.limit)
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
	auth.PUT("/me/email", a.UpdateEmail)
	auth.PUT("/me/password", a.UpdatePassword)
}

// RegisterAccount registers the endpoints shared by every role.
func RegisterAccount(e *echo.Echo, h *handler.AccountHandler, s *handler.StreamHandler, g guards) {
	auth := e.Group("/v1", g.auth, g.limit)
	auth.GET("/me/preferences", h.GetPreferences)
	auth.PUT("/me/preferences", h.UpdatePreferences)
	auth.PUT("/me/settings", h.UpdateSettings)
	auth.GET("/profile/:id", h.Profile)

	auth.GET("/notifications", h.Notifications)
	auth.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	auth.POST("/notifications/:id/read", h.MarkNotificationRead)

	auth.POST("/reviews", h.SubmitReview)
	auth.GET("/reviews/user/:id", h.ReviewsForUser)
	auth.POST("/reports", h.SubmitReport)
	auth.GET("/reports", h.MyReports)

	// The stream is long lived; it is not rate limited.
	e.GET("/v1/ws", s.Changes, g.auth)
}
