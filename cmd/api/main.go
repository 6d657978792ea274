package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/handler"
	apimiddleware "foodshare/internal/adapter/api/middleware"
	"foodshare/internal/adapter/api/router"
	"foodshare/internal/adapter/repository"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/internal/infrastructure/storage"
	"foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
	"foodshare/pkg/config"
	"foodshare/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption
	if cfg.CredentialsJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	} else {
		if cfg.CredentialsPath == "" {
			logger.Fatal("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH is required")
		}
		if _, err := os.Stat(cfg.CredentialsPath); os.IsNotExist(err) {
			logger.Fatal("Service account file does not exist: %s", cfg.CredentialsPath)
		}

		logger.Info("Using Firebase service account from file: %s", cfg.CredentialsPath)
		opt = option.WithCredentialsFile(cfg.CredentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		logger.Fatal("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	// Image uploads are disabled without a bucket.
	var imageStore usecase.ImageStore
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.CredentialsJSON, cfg.CredentialsPath)
		if err != nil {
			logger.Fatal("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		imageStore = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET is not set; listing image uploads are disabled")
	}

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	orderRepo := repository.NewFirestoreOrderRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	rateLimiter := ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		ratelimit.ActionSendMessage:       {PerMinute: cfg.SendRatePerMinute},
		ratelimit.ActionStartConversation: {PerMinute: cfg.StartRatePerMinute},
	})
	rateLimiter.StartCleanupRoutine(ctx.Done())

	ipLimiter := ratelimit.NewRateLimiter(apimiddleware.HTTPLimit(cfg.HTTPRatePerMinute))
	ipLimiter.StartCleanupRoutine(ctx.Done())

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	sessionUseCase := usecase.NewSessionUseCase(firebaseAuthClient, userRepo)
	listingUseCase := usecase.NewListingUseCase(listingRepo, imageStore)
	queryBuilder := usecase.NewListingQueryBuilder(listingRepo, cfg.ListingPageSize)
	similarFinder := usecase.NewSimilarListingsFinder(listingRepo, usecase.DefaultSimilarProviders(listingRepo), cfg.SimilarTarget)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, userRepo, listingRepo, wsManager, rateLimiter)
	orderTracker := usecase.NewOrderTracker(orderRepo, listingRepo)

	handler.Setup(sessionUseCase, listingUseCase, queryBuilder, similarFinder, chatUseCase, orderTracker, wsManager)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(sessionUseCase)
	router.Setup(e, authMiddleware, apimiddleware.RateLimit(ipLimiter))

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
