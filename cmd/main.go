package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/swara/adapters/audio"
	"github.com/satriahrh/swara/adapters/audit"
	"github.com/satriahrh/swara/adapters/llm"
	"github.com/satriahrh/swara/adapters/memory"
	swaramongo "github.com/satriahrh/swara/adapters/mongo"
	"github.com/satriahrh/swara/adapters/stt"
	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
	"github.com/satriahrh/swara/internal/api"
	"github.com/satriahrh/swara/internal/auth"
	"github.com/satriahrh/swara/internal/websocket"
	"github.com/satriahrh/swara/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	jwtService, err := auth.NewServiceFromEnv()
	if err != nil {
		logger.Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	// Storage: MongoDB when configured, in-memory otherwise
	var sessionRepo repositories.SessionRepository
	var auditTrail repositories.AuditTrail
	var mongoClient *swaramongo.Client
	if os.Getenv("MONGODB_URI") != "" {
		mongoClient, err = swaramongo.NewClient(swaramongo.NewClientConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		sessionRepo = swaramongo.NewSessionRepository(mongoClient.Database)
		auditTrail = audit.NewMongoAuditTrail(mongoClient.Database)
	} else {
		logger.Warn("MONGODB_URI not set, using in-memory sessions and a file audit trail")
		sessionRepo = memory.NewSessionRepository()

		auditPath := os.Getenv("AUDIT_LOG_PATH")
		if auditPath == "" {
			auditPath = "audit.jsonl"
		}
		auditTrail = audit.NewFileAuditTrail(auditPath, logger)
	}

	deviceRepo := setupDevices(logger)

	// Speech recognition: SaluteSpeech when its key is present, Google
	// Cloud as the alternative, otherwise the feature stays disabled.
	var speechToText repositories.SpeechToText
	switch {
	case os.Getenv("SALUTE_AUTH_KEY") != "":
		salute, err := stt.NewSaluteSpeechToText(stt.NewSaluteConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize SaluteSpeech", zap.Error(err))
		}
		speechToText = salute
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		speechToText = stt.NewGoogleSpeechToText(stt.NewGoogleConfigFromEnv())
	case os.Getenv("STT_PROVIDER") == "mock":
		speechToText = stt.NewMockSpeechToText(logger)
	default:
		logger.Warn("No speech recognition configured, voice notes will be rejected")
	}

	// Language model: Gemini when its key is present, canned replies
	// otherwise.
	var languageModel repositories.LargeLanguageModel
	if os.Getenv("GEMINI_API_KEY") != "" {
		languageModel, err = llm.NewGeminiLLM(llm.NewGeminiConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini", zap.Error(err))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock replies")
		languageModel = llm.NewMockLLM()
	}

	converter := audio.NewFFmpegConverter(logger)

	// Initialize usecase services
	voiceNoteService := usecase.NewVoiceNoteService(converter, speechToText, auditTrail, logger)
	chatService := usecase.NewChatService(languageModel, sessionRepo, auditTrail, logger)

	// Initialize WebSocket hub
	hub := websocket.NewHub(voiceNoteService, chatService, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, deviceRepo, sessionRepo, jwtService, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Gateway started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if mongoClient != nil {
		if err := mongoClient.Close(ctx); err != nil {
			logger.Error("Failed to close MongoDB connection", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// setupDevices builds the device registry. DEVICE_SERIAL and DEVICE_SECRET
// seed a single device for development setups.
func setupDevices(logger *zap.Logger) repositories.DeviceRepository {
	repo := memory.NewDeviceRepository()

	serial := os.Getenv("DEVICE_SERIAL")
	secret := os.Getenv("DEVICE_SECRET")
	if serial != "" && secret != "" {
		device := &entities.Device{
			SerialNumber: serial,
			Model:        os.Getenv("DEVICE_MODEL"),
		}
		if device.Model == "" {
			device.Model = "swara-dev"
		}
		if err := repo.Register(device, secret); err != nil {
			logger.Warn("Failed to seed development device", zap.Error(err))
		} else {
			logger.Info("Seeded development device", zap.String("serial", serial))
		}
	}

	return repo
}
