package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"             // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // echo's stock recover middleware
	"github.com/redis/go-redis/v9"            // optional backend for cache and rate limiting

	"github.com/iliyamo/online-cinema/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/online-cinema/internal/handler"    // HTTP handlers
	"github.com/iliyamo/online-cinema/internal/middleware" // JWT, group, cache and rate limit middleware
	"github.com/iliyamo/online-cinema/internal/model"      // group names for RequireGroup
)

// Deps carries everything the routes need.  Redis may be nil, which turns
// the response cache and the rate limiter into pass-throughs.
type Deps struct {
	Prefix    string
	Accounts  *handler.AccountHandler
	Movies    *handler.MovieHandler
	Tokens    middleware.AccessTokenParser
	DB        handler.Pinger
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// New builds the Echo instance with the global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	RegisterRoutes(e, d.DB)
	api := e.Group(d.Prefix)
	RegisterAccounts(api, d.Accounts, d.Tokens, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterMovies(api, d.Movies, middleware.NewRedisCache(d.Cache, d.Redis))
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// live outside the API prefix.  Currently it exposes only a health check
// used by load balancers.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAccounts registers the account lifecycle endpoints under
// /accounts.  Every unauthenticated endpoint sits behind the rate limiter;
// /accounts/me/ requires a valid access token from any group.
func RegisterAccounts(api *echo.Group, a *handler.AccountHandler, tokens middleware.AccessTokenParser, limiter echo.MiddlewareFunc) {
	g := api.Group("/accounts")

	open := g.Group("", limiter)
	open.POST("/register/", a.Register)
	open.POST("/activate/", a.Activate)
	open.POST("/login/", a.Login)
	open.POST("/refresh/", a.Refresh)
	open.POST("/password-reset/request/", a.RequestPasswordReset)
	open.POST("/reset-password/complete/", a.CompletePasswordReset)

	g.GET("/me/", a.Me,
		middleware.JWTAuth(tokens),
		middleware.RequireGroup(model.GroupUser, model.GroupModerator, model.GroupAdmin))
}

// RegisterMovies registers the public catalog endpoints under /movies.
// Responses go through the Redis cache.
func RegisterMovies(api *echo.Group, m *handler.MovieHandler, cache echo.MiddlewareFunc) {
	g := api.Group("/movies", cache)
	g.GET("/movies/", m.ListMovies)
	g.GET("/movies/:id/", m.GetMovie)
}
