package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bizchat/server/internal/auth"
	"github.com/bizchat/server/internal/chat"
	"github.com/bizchat/server/internal/config"
	"github.com/bizchat/server/internal/db"
	httphandler "github.com/bizchat/server/internal/http"
	"github.com/bizchat/server/internal/http/handlers"
	"github.com/bizchat/server/internal/middleware"
	"github.com/bizchat/server/internal/realtime"
	"github.com/bizchat/server/internal/repo"
)

const sessionCookieMaxAge = 30 * 24 * time.Hour

func main() {
	// Load .env from CWD (env vars override)
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	directory, closeDirectory := openDirectory(ctx, cfg)
	defer closeDirectory()

	if cfg.SeedDemo {
		if err := repo.SeedDemo(ctx, directory, cfg.StoryTTL); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		log.Println("Demo data seeded")
	}

	credentials := auth.NewCredentialStore(cfg.OTPSalt)
	sessions := auth.NewSessionStore()
	go auth.RunSweeper(ctx, cfg.SweepInterval, credentials, sessions)

	if cfg.OTPDevMode {
		log.Println("WARNING: OTP_DEV_MODE is on, codes are echoed in responses")
	}
	authService := auth.NewService(credentials, sessions, directory.Users, auth.LogSender{}, auth.Options{
		DevMode:               cfg.OTPDevMode,
		RequireVerifiedSignup: cfg.SignupRequiresOTP,
	})

	hub := realtime.NewHub()
	chatService := chat.NewService(directory, realtime.NewHubNotifier(hub), cfg.StoryTTL)

	router := httphandler.NewRouter(httphandler.Deps{
		Auth: handlers.NewAuthHandler(authService, handlers.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.CookieSecure,
			MaxAge: sessionCookieMaxAge,
		}),
		User:              handlers.NewUserHandler(authService),
		Chat:              handlers.NewChatHandler(chatService),
		Story:             handlers.NewStoryHandler(chatService),
		Feature:           handlers.NewFeatureHandler(chatService),
		Sessions:          sessions,
		Hub:               hub,
		CORSOrigins:       cfg.CORSOrigins,
		SessionCookieName: cfg.SessionCookieName,
		OTPLimiter:        middleware.NewRateLimiter(ctx, cfg.RateLimitWindow, cfg.OTPIPLimit),
		VerifyLimiter:     middleware.NewRateLimiter(ctx, cfg.RateLimitWindow, cfg.VerifyIPLimit),
		WSAccept: realtime.AcceptOptions{
			InsecureSkipVerify: cfg.WSInsecureSkipVerify,
			OriginPatterns:     realtime.OriginHosts(cfg.CORSOrigins),
		},
	})

	// No Read/WriteTimeout: they would cut long-lived websocket connections.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited")
}

// openDirectory returns the Postgres directory when DATABASE_URL is set and the
// in-memory one otherwise.
func openDirectory(ctx context.Context, cfg *config.Config) (*repo.Directory, func()) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, using in-memory directory (data is lost on restart)")
		return repo.NewMemoryDirectory(), func() {}
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		_ = database.Close()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return repo.NewPostgresDirectory(database), func() { _ = database.Close() }
}
