package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/brightline-digital/concierge/config"
	"github.com/brightline-digital/concierge/internal/assistant"
	"github.com/brightline-digital/concierge/internal/chat"
	"github.com/brightline-digital/concierge/internal/crm"
	"github.com/brightline-digital/concierge/internal/events"
	"github.com/brightline-digital/concierge/internal/store"
	"github.com/brightline-digital/concierge/internal/tools"
	handler "github.com/brightline-digital/concierge/internal/transport/http"
	"github.com/brightline-digital/concierge/internal/transport/ws"
	"github.com/brightline-digital/concierge/internal/voice"
	"github.com/brightline-digital/concierge/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting concierge...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize backend clients
	backend := assistant.NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.AssistantID)

	var crmClient *crm.Client
	if cfg.CRMAPIKey != "" {
		crmClient = crm.NewClient(cfg.CRMBaseURL, cfg.CRMAPIKey, cfg.CRMLocationID, cfg.ClientTimeout)
	} else {
		log.Printf("GHL_API_KEY not set, CRM integration disabled")
	}

	var voiceClient *voice.Client
	if cfg.VoiceAPIKey != "" {
		voiceClient = voice.NewClient(cfg.VoiceBaseURL, cfg.VoiceAPIKey, cfg.WebhookURL, cfg.ClientTimeout)
	} else {
		log.Printf("BLAND_API_KEY not set, voice integration disabled")
	}

	// Initialize tool registry
	registry := tools.NewRegistry()
	if crmClient != nil {
		registry.MustRegister("create_lead", tools.CreateLeadHandler(crmClient))
	}
	if voiceClient != nil {
		demoCall := tools.DemoCallHandler(voiceClient, cfg.PathwayID)
		registry.MustRegister("initiate_demo_call", demoCall)
		// Older assistant configurations use this name.
		registry.MustRegister("place_call", demoCall)
	}

	// Initialize assistant service
	poller := assistant.NewPoller(backend, registry, cfg.PollInterval, cfg.MaxPollAttempts)
	svc := assistant.NewService(backend, poller)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize event publisher
	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.New(cfg.AMQPURL, cfg.AMQPExchange, slog.Default())
		if err != nil {
			log.Fatalf("Failed to connect to event bus: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Printf("AMQP_URL not set, event publishing disabled")
		publisher = events.NewNoop()
	}

	// Initialize chat engine
	var leads chat.LeadSink
	if crmClient != nil {
		leads = crmClient
	}
	chatEngine := chat.NewEngine(db, policyEngine, svc, leads, cfg.BookingURL, cfg.SoftCTAAfter, cfg.HardCTAAfter)

	// Initialize handlers
	h := handler.NewHandler(db, svc, chatEngine, crmClient, voiceClient, publisher, cfg)
	wsServer := ws.NewServer(chatEngine)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(server)
	server.GET("/ws/chat", wsServer.HandleWebSocket)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down concierge...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Concierge stopped")
}
