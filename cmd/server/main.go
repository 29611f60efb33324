package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userdocs-backend/config"
	"userdocs-backend/database"
	"userdocs-backend/handlers"
	"userdocs-backend/logging"
	"userdocs-backend/repository"
	"userdocs-backend/service"
	"userdocs-backend/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logging.New(logging.Config{Level: cfg.Log.Level, Dev: cfg.Log.Dev})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalw("server stopped with error", "err", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	// Initialize database
	db, err := database.Connect(ctx, database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.InitSchema(ctx, db, logger); err != nil {
		return err
	}
	logger.Infow("database ready", "driver", cfg.Database.Driver)

	// Initialize storage
	fileStorage, err := storage.NewStorage(ctx, storage.StorageConfig{
		Type:         storage.StorageType(cfg.Storage.Type),
		LocalPath:    cfg.Storage.LocalPath,
		S3Bucket:     cfg.Storage.S3Bucket,
		S3Region:     cfg.Storage.S3Region,
		S3Endpoint:   cfg.Storage.S3Endpoint,
		AWSAccessKey: cfg.Storage.AWSAccessKey,
		AWSSecretKey: cfg.Storage.AWSSecretKey,
	})
	if err != nil {
		return err
	}
	logger.Infow("storage initialized", "type", cfg.Storage.Type)

	hasher, err := service.NewPasswordHasher(cfg.Auth.PasswordScheme, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// Initialize services
	documentService := service.NewDocumentService(
		service.DocumentWithStorage(fileStorage),
		service.DocumentWithIndex(documentRepo),
		service.DocumentWithAllowedExtensions(cfg.Upload.AllowedExtensions...),
		service.DocumentWithLogger(logger.Named("documents")),
	)

	registrationService := service.NewRegistrationService(
		service.RegistrationWithDatabase(db),
		service.RegistrationWithDocumentService(documentService),
		service.RegistrationWithPasswordHasher(hasher),
		service.RegistrationWithLogger(logger.Named("registration")),
	)

	authService := service.NewAuthService(
		service.AuthWithUserRepository(userRepo),
		service.AuthWithPasswordHasher(hasher),
		service.AuthWithLogger(logger.Named("auth")),
	)

	profileService := service.NewProfileService(
		service.ProfileWithUserRepository(userRepo),
		service.ProfileWithDocumentService(documentService),
		service.ProfileWithLogger(logger.Named("profile")),
	)

	// Initialize handlers
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Accounts:     handlers.NewAccountHandler(registrationService, authService, profileService, documentService, logger.Named("http")),
		Documents:    handlers.NewDocumentHandler(documentService, logger.Named("http")),
		Logger:       logger.Named("http"),
		MaxBodyBytes: cfg.Upload.MaxBytes,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
