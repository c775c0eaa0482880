package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/config"
	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/domain/integration"
	"github.com/edumeal/edumeal-api/internal/domain/mealcredit"
	"github.com/edumeal/edumeal-api/internal/domain/report"
	"github.com/edumeal/edumeal-api/internal/domain/student"
	"github.com/edumeal/edumeal-api/internal/domain/subscription"
	"github.com/edumeal/edumeal-api/internal/domain/ticket"
	"github.com/edumeal/edumeal-api/internal/domain/webhook"
	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/database"
	"github.com/edumeal/edumeal-api/internal/pkg/identity"
	"github.com/edumeal/edumeal-api/internal/pkg/imaging"
	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
	"github.com/edumeal/edumeal-api/internal/pkg/logger"
	"github.com/edumeal/edumeal-api/internal/pkg/metrics"
	"github.com/edumeal/edumeal-api/internal/pkg/permission"
	"github.com/edumeal/edumeal-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting EduMeal API")

	clk := clock.New(cfg.Location())

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}
	if cfg.SeedDemoData {
		seeded, err := database.SeedDemo(context.Background(), db, clk.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo data")
		}
		log.Info().Bool("seeded", seeded).Msg("Demo data checked")
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis, continuing without it")
		redis = nil
	}
	defer database.CloseRedis(redis)

	store, err := storage.New(storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.StorageLocalPath,
		PublicURL:   cfg.StoragePublicURL,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Object storage unavailable, photo uploads and report archives disabled")
		store = nil
	}

	var verifier middleware.TokenVerifier
	if cfg.IdentityURL != "" {
		verifier = identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey, redis, cfg.IdentityCacheTTL)
		log.Info().Str("url", cfg.IdentityURL).Msg("Verifying tokens against identity service")
	} else {
		verifier = jwt.NewService(cfg.JWTSecret, time.Hour)
		log.Info().Msg("Verifying tokens locally with JWT secret")
	}

	enforcer, err := permission.NewEnforcer(permission.DefaultPolicies)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load permissions")
	}
	authMiddleware := authChain(verifier, enforcer)

	if cfg.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET not set, payment webhooks are accepted unsigned")
	}
	if cfg.TicketHashKey == "" {
		log.Warn().Msg("TICKET_HASH_KEY not set, ticket hashes use an empty key")
	}

	// ---------- Activity ----------
	activityHub := activity.NewHub(redis)
	go activityHub.Run()
	defer activityHub.Shutdown()

	activityRepo := activity.NewRepository(db)
	activityService := activity.NewService(activityRepo, activityHub)

	// ---------- Repositories ----------
	studentRepo := student.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)
	ticketRepo := ticket.NewRepository(db)
	reportRepo := report.NewRepository(db)
	integrationRepo := integration.NewRepository(db)

	// ---------- Services ----------
	studentService := student.NewService(studentRepo, store, imaging.NewProcessor(imaging.DefaultConfig()))
	ledger := mealcredit.NewLedger(db, subscriptionRepo)
	grantEngine := mealcredit.NewEngine(studentRepo, ledger, integrationRepo, activityService, clk)
	ticketService := ticket.NewService(ticketRepo, studentRepo, activityService, ticket.NewSigner(cfg.TicketHashKey), clk)
	reportService := report.NewService(reportRepo, subscriptionRepo, activityService, store, clk)

	// ---------- Handlers ----------
	reportHandler := report.NewHandler(reportService)
	routes := apiRoutes{
		Students:           student.NewHandler(studentService).Routes(authMiddleware),
		Subscriptions:      subscription.NewHandler(subscriptionRepo).Routes(authMiddleware),
		MealCredits:        mealcredit.NewHandler(grantEngine).Routes(authMiddleware),
		Tickets:            ticket.NewHandler(ticketService).Routes(authMiddleware),
		Reports:            reportHandler.Routes(authMiddleware),
		EligibilityReports: reportHandler.SnapshotRoutes(authMiddleware),
		Integrations:       integration.NewHandler(integrationRepo, activityService, activityService).Routes(authMiddleware),
		Activity:           activity.NewHandler(activityService, activityHub, cfg.AllowedOrigins).Routes(authMiddleware),
		Webhooks:           webhook.NewHandler(grantEngine, activityService, cfg.WebhookSecret).Routes(),
	}

	var uploadsDir string
	if local, ok := store.(*storage.LocalStorage); ok {
		uploadsDir = local.BasePath()
	}

	r := newRouter(cfg, routes, uploadsDir)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// apiRoutes are the routers mounted under /api.
type apiRoutes struct {
	Students           http.Handler
	Subscriptions      http.Handler
	MealCredits        http.Handler
	Tickets            http.Handler
	Reports            http.Handler
	EligibilityReports http.Handler
	Integrations       http.Handler
	Activity           http.Handler
	Webhooks           http.Handler
}

// authChain authenticates the bearer token, then checks the role policy.
func authChain(verifier middleware.TokenVerifier, checker middleware.PermissionChecker) func(http.Handler) http.Handler {
	authenticate := middleware.Auth(verifier)
	authorize := middleware.Authorize(checker)
	return func(next http.Handler) http.Handler {
		return authenticate(authorize(next))
	}
}

func newRouter(cfg *config.Config, routes apiRoutes, uploadsDir string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	if uploadsDir != "" {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir)))
			r.Handle("/uploads/*", fs)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/students", routes.Students)
		r.Mount("/subscriptions", routes.Subscriptions)
		r.Mount("/meal-credits", routes.MealCredits)
		r.Mount("/tickets", routes.Tickets)
		r.Mount("/reports", routes.Reports)
		r.Mount("/eligibility-reports", routes.EligibilityReports)
		r.Mount("/integrations", routes.Integrations)
		r.Mount("/activity", routes.Activity)

		// Payment providers sign requests instead of carrying operator tokens.
		r.Mount("/webhooks", routes.Webhooks)
	})

	return r
}

func setupLogger(cfg *config.Config) {
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to initialise logger")
	}
}
