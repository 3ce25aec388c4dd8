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

	"github.com/omgcreativity/laojia/internal/api"
	"github.com/omgcreativity/laojia/internal/config"
	"github.com/omgcreativity/laojia/internal/handlers"
	"github.com/omgcreativity/laojia/internal/llm"
	"github.com/omgcreativity/laojia/internal/relay"
	"github.com/omgcreativity/laojia/internal/services"
	"github.com/omgcreativity/laojia/internal/store/file"
	"github.com/omgcreativity/laojia/internal/tts"
)

func main() {
	log.Println("Starting Laojia Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize the file-backed store
	fileStore, err := file.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize data directory %s: %v", cfg.DataDir, err)
	}
	log.Printf("File store initialized at %s.", cfg.DataDir)

	// 3. Initialize Dependencies (LLM, TTS, Services, Handlers)
	var model llm.LLM
	if cfg.GeminiAPIKey != "" {
		model, err = llm.New(llm.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to create LLM client: %v", err)
		}
		log.Println("LLM client initialized.")
	} else {
		log.Println("GEMINI_API_KEY not set; direct chat disabled, relay path only.")
	}

	var voice *tts.Synthesizer
	if cfg.TTSEnabled {
		if tts.Available() {
			voice = tts.NewSynthesizer(cfg.TTSVoice, cfg.DataDir)
			log.Println("TTS synthesizer initialized.")
		} else {
			log.Println("WARN: edge-tts not found in PATH; voice replies disabled.")
		}
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(fileStore, cfg)
	log.Println("AuthService initialized.")
	chatService := services.NewChatService(fileStore, model, voice)
	log.Println("ChatService initialized.")
	bridgeService := services.NewBridgeService(fileStore)
	log.Println("BridgeService initialized.")
	waiter := relay.NewWaiter(fileStore, relay.UIWaitPolicy)
	log.Println("Reply waiter initialized.")

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(authService)
	chatHandler := handlers.NewChatHandlers(chatService, bridgeService, waiter)
	bridgeHandler := handlers.NewBridgeHandler(bridgeService)
	log.Println("Handlers initialized.")

	// 4. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		AuthHandler:    authHandler,
		ProfileHandler: profileHandler,
		ChatHandler:    chatHandler,
		BridgeHandler:  bridgeHandler,
		Config:         cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// /v1/chat/wait holds the connection for up to a minute, so the write
		// timeout must outlast the polling window.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	// Run server in a goroutine so it doesn't block
	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	// Wait for interrupt signal
	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		log.Fatal("Forcing shutdown due to error.")
	}

	log.Println("Server shutdown complete.")
}
