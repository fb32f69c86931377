package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dkravtsov/offerhub/internal/config"
	"github.com/dkravtsov/offerhub/internal/handler"
	"github.com/dkravtsov/offerhub/internal/middleware"
)

// apiPrefix is the common prefix of every versioned endpoint.
const apiPrefix = "/api/v1"

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the credential endpoints. Login and registration
// sit behind the per-IP rate limiter; refresh and logout authenticate
// through the session cookie (logout additionally requires an access
// token).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limited := e.Group(apiPrefix, middleware.AuthRateLimit(rlCfg, rdb))
	limited.POST("/auth/token", a.Login)
	limited.POST("/user", u.Register)

	g := e.Group(apiPrefix + "/auth")
	g.POST("/token/refresh", a.Refresh)

	strict := e.Group(apiPrefix+"/auth", middleware.StrictAuth(a.Cfg.JWTSecret, a.Users))
	strict.POST("/logout", a.Logout)
}

// RegisterUser wires account management: profile data, email
// verification and password rotation. Everything here requires a valid
// access token.
func RegisterUser(e *echo.Echo, u *handler.UserHandler) {
	g := e.Group(apiPrefix, middleware.StrictAuth(u.Cfg.JWTSecret, u.Users))
	g.DELETE("/user", u.Delete)
	g.GET("/user/personal_data", u.GetPersonalData)
	g.PUT("/user/personal_data", u.UpdatePersonalData)
	g.GET("/email/verify", u.RequestEmailVerify)
	g.POST("/email/verify", u.ConfirmEmailVerify)
	g.POST("/email/password_update", u.UpdatePassword)
}

// RegisterOffers wires offer CRUD plus the public browse views. The
// browse endpoints run behind soft auth so owners of anonymous offers
// still see themselves, and behind the shared response cache for
// anonymous traffic.
func RegisterOffers(e *echo.Echo, cfg config.Config, o *handler.OfferHandler, users middleware.EmailUserSource, cacheCfg config.CacheConfig, rdb *redis.Client) {
	public := e.Group(apiPrefix,
		middleware.SoftAuth(cfg.JWTSecret, users),
		middleware.PublicCache(cacheCfg, rdb),
	)
	public.GET("/offers/main", o.List)
	public.GET("/offers/main/:id", o.PublicView)

	strict := e.Group(apiPrefix, middleware.StrictAuth(cfg.JWTSecret, users))
	strict.POST("/offers", o.Create)
	strict.GET("/offers/my", o.ListMine)
	strict.GET("/offers/my/:id", o.PrivateView)
	strict.PUT("/offers/:id", o.Update)
	strict.DELETE("/offers/:id", o.Delete)
}

// RegisterMarket wires executors, files, chats and messaging. All of
// these operate on owned resources and require an access token.
func RegisterMarket(e *echo.Echo, cfg config.Config, users middleware.EmailUserSource, ex *handler.ExecutorHandler, f *handler.FileHandler, ch *handler.ChatHandler) {
	g := e.Group(apiPrefix, middleware.StrictAuth(cfg.JWTSecret, users))

	g.POST("/offer/:id/executor", ex.Become)
	g.PUT("/executor/:id/approve", ex.Approve)
	g.DELETE("/executor/:id", ex.Remove)

	g.POST("/files", f.Create)
	g.PUT("/files/:id", f.Update)
	g.DELETE("/files/:id", f.Delete)

	g.POST("/chats", ch.Create)
	g.DELETE("/chats/:id", ch.Delete)
	g.POST("/chats/:id/messages", ch.PostMessage)
	g.GET("/chats/:id/messages", ch.ListMessages)
}

// RegisterCatalog wires the lookup-table endpoints behind the response
// cache; the tables change only by migration.
func RegisterCatalog(e *echo.Echo, c *handler.CatalogHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group(apiPrefix, middleware.PublicCache(cacheCfg, rdb))
	g.GET("/categories", c.Categories)
	g.GET("/offer_types", c.OfferTypes)
}

// RegisterNotifications wires the stream-token exchange and the event
// stream itself. The stream authenticates via the short-lived token in
// the query string rather than the Authorization header.
func RegisterNotifications(e *echo.Echo, cfg config.Config, users middleware.EmailUserSource, n *handler.NotificationHandler) {
	strict := e.Group(apiPrefix, middleware.StrictAuth(cfg.JWTSecret, users))
	strict.GET("/notification/token", n.Token)

	e.GET(apiPrefix+"/notification/stream", n.Stream)
}
