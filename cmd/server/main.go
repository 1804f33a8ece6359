package main // Entry point package

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/online-movie-api/internal/auth"
	"github.com/iliyamo/online-movie-api/internal/config"
	"github.com/iliyamo/online-movie-api/internal/database"
	"github.com/iliyamo/online-movie-api/internal/handler"
	"github.com/iliyamo/online-movie-api/internal/logging"
	"github.com/iliyamo/online-movie-api/internal/middleware"
	"github.com/iliyamo/online-movie-api/internal/repository"
	"github.com/iliyamo/online-movie-api/internal/router"
	"github.com/iliyamo/online-movie-api/internal/service"
	"github.com/iliyamo/online-movie-api/internal/utils"
	"github.com/iliyamo/online-movie-api/internal/validation"
)

func main() {
	bootstrap := flag.Bool("bootstrap", false, "create the catalog tables from the embedded schema before serving")
	flag.Parse()

	_ = godotenv.Load() // best-effort
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	zerolog.DefaultContextLogger = &log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if *bootstrap {
		if err := database.Bootstrap(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("schema bootstrap failed")
		}
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}

	// Rate limiting degrades to pass-through without Redis.
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	if len(cfg.AdminEmails) == 0 {
		log.Warn().Msg("ADMIN_EMAILS is empty: every signed-in user can reach the admin console")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	catalog := repository.NewCatalogRepo(db)
	recommender := service.NewRecommender(repository.NewRecommendationRepo(db))

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Validator = validation.EchoValidator{}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.SessionAuth(cfg.SessionSecret, sessions))

	apiLimit := middleware.NewTokenBucket("api", cfg.RateLimit, rdb)
	authLimit := middleware.NewTokenBucket("auth", cfg.RateLimit.ForAuth(), rdb)
	e.Use(middleware.UnderPrefix("/api/", apiLimit))

	authHandler := handler.NewAuthHandler(users, sessions,
		utils.Passwords{Mode: cfg.PasswordMode, Cost: cfg.BcryptCost},
		handler.SessionOptions{Secret: cfg.SessionSecret, TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})
	recHandler := &handler.RecommendationHandler{Recommender: recommender}

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authHandler, authLimit)
	router.RegisterOAuth(e, authHandler, cfg.FrontendOrigin, providers(cfg)...)
	router.RegisterPublic(e, &handler.CatalogHandler{Catalog: catalog, Users: users}, recHandler)
	router.RegisterMember(e, router.MemberHandlers{
		Ratings:         &handler.RatingHandler{Ratings: repository.NewRatingRepo(db)},
		Watchlist:       &handler.WatchlistHandler{Watchlist: repository.NewWatchlistRepo(db)},
		Authoring:       &handler.AuthoringHandler{Movies: repository.NewMovieRepo(db)},
		Recommendations: recHandler,
	})
	router.RegisterAdmin(e, &handler.AdminHandler{Store: repository.NewAdminRepo(db)}, cfg.AdminEmails, authLimit)

	go service.SweepSessions(ctx, sessions, cfg.SessionSweepInterval, log)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// providers returns the OAuth providers whose credentials are configured.
func providers(cfg config.Config) []auth.Provider {
	var out []auth.Provider
	if cfg.GoogleEnabled() {
		out = append(out, auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.PublicBaseURL+"/api/auth/google/callback"))
	}
	if cfg.GitHubEnabled() {
		out = append(out, auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret,
			cfg.PublicBaseURL+"/api/auth/github/callback"))
	}
	return out
}
