package main // Entry point package

import (
	"context"   // Startup and shutdown deadlines
	"errors"    // Distinguish a clean server close
	"net/http"  // http.ErrServerClosed
	"os"        // Signals
	"os/signal" // Wait for SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"github.com/joho/godotenv"    // .env loading for local runs
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/movie-watchlist/internal/config"     // Internal config loader
	"github.com/iliyamo/movie-watchlist/internal/database"   // Persistence gateway
	"github.com/iliyamo/movie-watchlist/internal/handler"    // Page handlers
	"github.com/iliyamo/movie-watchlist/internal/logging"    // logrus setup
	"github.com/iliyamo/movie-watchlist/internal/middleware" // Rate limiter
	"github.com/iliyamo/movie-watchlist/internal/queue"      // Activity consumer
	"github.com/iliyamo/movie-watchlist/internal/repository" // Domain operations
	"github.com/iliyamo/movie-watchlist/internal/router"     // Internal router setup
	"github.com/iliyamo/movie-watchlist/internal/service"    // Event publisher
	"github.com/iliyamo/movie-watchlist/internal/session"    // Session stores
	"github.com/iliyamo/movie-watchlist/internal/view"       // HTML templates
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load() // Load environment config

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := database.Open(ctx, cfg.DatabaseOptions())
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer gw.Close()

	// Redis backs sessions and the login rate limiter; without it sessions
	// live in process memory and rate limiting is off.
	var store session.Store
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.Redis.Prefix, cfg.SessionTTL)
		log.WithField("addr", cfg.Redis.Addr).Info("sessions stored in redis")
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		log.WithField("addr", cfg.Redis.Addr).Warn("redis unavailable; sessions kept in memory")
	}
	sessions := session.NewManager(store, session.Options{
		Secret:     cfg.SessionSecret,
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.CookieSecure,
	})

	var events handler.EventPublisher
	if cfg.EventsEnabled {
		events = service.NewPublisher(cfg.RabbitURL, log)
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, cfg.ActivityLog, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("activity consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(gw)
	movies := repository.NewMovieRepo(gw)
	saved := repository.NewSavedMovieRepo(gw)
	reviews := repository.NewReviewRepo(gw)
	ratings := repository.NewRatings(gw, reviews, movies)

	renderer, err := view.New()
	if err != nil {
		log.WithError(err).Fatal("parse templates")
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Renderer = renderer
	router.Setup(e, router.Deps{
		Log:      log,
		Sessions: sessions,
		DB:       gw.DB(),
		Limiter:  middleware.NewCredentialLimiter(cfg.RateLimit, rdb, log),
		Auth:     handler.NewAuthHandler(cfg, users, sessions, events, log),
		Movies:   handler.NewMovieHandler(movies, saved, reviews, ratings, events, log),
		Users:    handler.NewUserHandler(users, log),
		Admin:    handler.NewAdminHandler(users, log),
	})

	addr := ":" + cfg.Port
	log.WithFields(map[string]any{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}
