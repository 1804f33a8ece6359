package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-movie-api/internal/auth"
	"github.com/iliyamo/online-movie-api/internal/handler"
	"github.com/iliyamo/online-movie-api/internal/metrics"
	"github.com/iliyamo/online-movie-api/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: liveness, readiness
// against the database and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers local sign-up, login, logout and the current-user
// probe. authLimit is the stricter rate-limit bucket; it guards the two
// routes that accept passwords.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authLimit echo.MiddlewareFunc) {
	e.POST("/api/register", a.Register, authLimit)
	e.POST("/api/login", a.Login, authLimit)

	g := e.Group("/api/auth")
	g.POST("/logout", a.Logout)
	g.GET("/user", a.Me)
}

// RegisterOAuth mounts /api/auth/<provider> and its callback for every
// configured provider. Providers without credentials are simply absent.
func RegisterOAuth(e *echo.Echo, a *handler.AuthHandler, frontendOrigin string, providers ...auth.Provider) {
	g := e.Group("/api/auth")
	for _, p := range providers {
		g.GET("/"+p.Name(), a.OAuthLogin(p))
		g.GET("/"+p.Name()+"/callback", a.OAuthCallback(p, frontendOrigin))
	}
}

// RegisterPublic registers the browse endpoints that need no session:
// catalog search and detail, the user list, form lookups and the
// similar-movie lists.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, r *handler.RecommendationHandler) {
	g := e.Group("/api")
	g.GET("/movies", c.ListMovies)
	g.GET("/movie/:id", c.GetMovie)
	g.GET("/movie_details/:id", c.MovieDetails)
	g.GET("/users", c.ListUsers)
	g.GET("/form_data", c.FormData)

	g.GET("/similar-movies/:movieId", r.SimilarByGenre)
	g.GET("/similar-by-director/:movieId", r.SimilarByDirector)
	g.GET("/similar-by-production/:movieId", r.SimilarByProduction)
}

// MemberHandlers groups the handlers behind RequireAuth.
type MemberHandlers struct {
	Ratings         *handler.RatingHandler
	Watchlist       *handler.WatchlistHandler
	Authoring       *handler.AuthoringHandler
	Recommendations *handler.RecommendationHandler
}

// RegisterMember registers endpoints for signed-in users. Routes carrying
// :userId additionally check in the handler that the id is the caller's.
// The guard is attached per route: a guarded group on /api would claim
// every unmatched /api path and answer 401 instead of 404.
func RegisterMember(e *echo.Echo, h MemberHandlers) {
	g := e.Group("/api")
	member := middleware.RequireAuth()
	g.POST("/rate_movie", h.Ratings.RateMovie, member)
	g.GET("/user-ratings/:userId", h.Ratings.UserRatings, member)

	g.GET("/watchlist/:userId", h.Watchlist.List, member)
	g.POST("/watchlist/add", h.Watchlist.Add, member)
	g.POST("/watchlist/remove", h.Watchlist.Remove, member)

	g.POST("/add_movie", h.Authoring.AddMovie, member)

	g.GET("/recommendations/:userId", h.Recommendations.ForUser, member)
	g.GET("/ai-recommendations/:userId", h.Recommendations.Hybrid, member)
}

// RegisterAdmin registers the admin console. The raw query runner also
// sits behind the stricter rate-limit bucket.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, adminEmails []string, authLimit echo.MiddlewareFunc) {
	g := e.Group("/api")
	admin := middleware.RequireAdmin(adminEmails)
	g.GET("/tables", a.Tables, admin)
	g.GET("/table/:tableName", a.ReadTable, admin)
	g.POST("/table/:tableName", a.InsertRow, admin)
	g.PUT("/table/:tableName", a.UpdateRow, admin)
	g.DELETE("/table/:tableName", a.DeleteRow, admin)
	g.POST("/run_query", a.RunQuery, admin, authLimit)
}
