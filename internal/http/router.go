package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bizchat/server/internal/http/handlers"
	"github.com/bizchat/server/internal/middleware"
	"github.com/bizchat/server/internal/realtime"
)

// Deps collects everything the router dispatches to
type Deps struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Chat     *handlers.ChatHandler
	Story    *handlers.StoryHandler
	Feature  *handlers.FeatureHandler
	Sessions middleware.SessionResolver
	Hub      *realtime.Hub

	CORSOrigins       []string
	SessionCookieName string
	// OTPLimiter and VerifyLimiter throttle send-otp and verify-otp per client IP; nil disables.
	OTPLimiter    *middleware.RateLimiter
	VerifyLimiter *middleware.RateLimiter
	// WSAccept configures the websocket origin check; session lookup is filled in from Sessions.
	WSAccept realtime.AcceptOptions
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(corsOptions(d.CORSOrigins)))

	wsOpts := d.WSAccept
	wsOpts.Sessions = d.Sessions
	wsOpts.CookieName = d.SessionCookieName

	r.Get("/health", handlers.NewHealthHandler(d.Hub).ServeHTTP)
	r.Get("/ws", realtime.ServeWS(d.Hub, wsOpts))

	requireSession := middleware.AuthMiddleware(d.Sessions, d.SessionCookieName)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit(d.OTPLimiter)...).Post("/send-otp", d.Auth.HandleSendOtp)
			r.With(limit(d.VerifyLimiter)...).Post("/verify-otp", d.Auth.HandleVerifyOtp)
			r.Post("/create-user", d.Auth.HandleCreateUser)
			r.With(requireSession).Post("/logout", d.Auth.HandleLogout)
		})

		r.Get("/stories", d.Story.HandleList)
		r.Get("/features", d.Feature.HandleList)

		// Protected routes (require a valid session)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/user/current", d.User.HandleCurrent)
			r.Patch("/user/current", d.User.HandleUpdate)

			r.Get("/chats", d.Chat.HandleList)
			r.Post("/chats", d.Chat.HandleCreate)
			r.Get("/chats/{chatId}/messages", d.Chat.HandleListMessages)
			r.Post("/chats/{chatId}/messages", d.Chat.HandleSendMessage)

			r.Post("/stories", d.Story.HandleCreate)
			r.Post("/stories/{storyId}/view", d.Story.HandleView)
		})
	})

	return r
}

// corsOptions allows credentials only for explicit origins; browsers reject
// credentialed responses carrying a wildcard origin.
func corsOptions(origins []string) cors.Options {
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

func limit(rl *middleware.RateLimiter) []func(nethttp.Handler) nethttp.Handler {
	if rl == nil {
		return nil
	}
	return []func(nethttp.Handler) nethttp.Handler{middleware.RateLimitMiddleware(rl, middleware.GetIPKey)}
}
