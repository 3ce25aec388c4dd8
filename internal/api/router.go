package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/omgcreativity/laojia/internal/config"
	"github.com/omgcreativity/laojia/internal/handlers"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler    *handlers.AuthHandler
	ProfileHandler *handlers.ProfileHandler
	ChatHandler    *handlers.ChatHandlers
	BridgeHandler  *handlers.BridgeHandler
	Config         *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second)) // /v1/chat/wait blocks up to a minute

	// --- CORS Configuration ---
	// Adjust AllowedOrigins for your frontend deployment(s)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.vercel.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// --- Public Bridge Surface ---
	// The relay worker is a headless browser with no credentials, so the
	// bridge lives on the root path with query-param dispatch.
	if deps.BridgeHandler != nil {
		r.Get("/", deps.BridgeHandler.HandleBridge)
	} else {
		log.Println("WARN: BridgeHandler dependency is nil, skipping bridge route.")
	}

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/register", deps.AuthHandler.HandleRegister)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		// Apply JWT Authentication Middleware
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		// --- Mount Profile Routes ---
		if deps.ProfileHandler != nil {
			r.Route("/profile", func(r chi.Router) {
				r.Get("/", deps.ProfileHandler.HandleGetProfile)
				r.Put("/", deps.ProfileHandler.HandleUpdateProfile)
			})
		} else {
			log.Println("WARN: ProfileHandler dependency is nil, skipping /v1/profile routes.")
		}

		// --- Mount Chat Routes ---
		if deps.ChatHandler != nil {
			r.Route("/chat", func(r chi.Router) {
				r.Post("/", deps.ChatHandler.HandleChat)
				r.Get("/history", deps.ChatHandler.HandleHistory)
				r.Post("/relay", deps.ChatHandler.HandleRelayMessage)
				r.Get("/wait", deps.ChatHandler.HandleWait)
			})
		} else {
			log.Println("WARN: ChatHandler dependency is nil, skipping /v1/chat routes.")
		}
	})

	return r
}
