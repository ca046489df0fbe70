package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shopauth/database"
	"shopauth/internal/auth"
	"shopauth/internal/config"
	"shopauth/internal/email"
	"shopauth/internal/events"
	"shopauth/internal/handlers"
	"shopauth/internal/logger"
	"shopauth/internal/middleware"
	"shopauth/internal/models"
	"shopauth/internal/repositories"
	"shopauth/internal/routes"
	"shopauth/internal/services"
	"shopauth/internal/validator"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which the repositories depend on.
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, cleanup := SetupRouter(cfg, gormDB)
	defer cleanup()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services, handlers and middleware into a
// gin engine. The returned cleanup closes the email provider and event bus.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, func()) {
	tokens := auth.NewTokenManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLDays)*24*time.Hour,
	)

	emailProvider := initializeEmailProvider(cfg)
	bus := initializeEventBus(cfg)

	authService := services.NewAuthService(services.AuthServiceDeps{
		Users:         repositories.NewUserRepository(),
		RefreshTokens: repositories.NewRefreshTokenRepository(),
		ResetTokens:   repositories.NewPasswordResetRepository(),
		VerifyTokens:  repositories.NewEmailVerificationRepository(),
		Tokens:        tokens,
		Email:         emailProvider,
		Bus:           bus,
		ResetTTL:      time.Duration(cfg.JWT.ResetTTLHours) * time.Hour,
		VerifyTTL:     time.Duration(cfg.JWT.VerifyTTLHours) * time.Hour,
	})
	userService := services.NewUserService(repositories.NewUserRepository())

	appHandlers := handlers.NewAppHandlers(validator.New(), authService, userService, cfg.SSO.Issuer)

	ginRouter := initializeGinRouter(gormDB, cfg.Server.Env)
	routes.RegisterRoutes(ginRouter, appHandlers, tokens)

	cleanup := func() {
		emailProvider.Close()
		bus.Close()
	}
	return ginRouter, cleanup
}

func initializeEmailProvider(cfg *config.Config) email.Provider {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP not configured, using mock email provider")
		return &MockEmailProvider{}
	}

	provider, err := email.NewSMTPProvider(email.Config{
		SMTPHost:    cfg.Email.SMTPHost,
		SMTPPort:    cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUsername,
		Password:    cfg.Email.SMTPPassword,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		FrontendURL: cfg.Email.FrontendURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize email provider", "error", err)
	}
	logger.Info("SMTP email provider initialized", "host", cfg.Email.SMTPHost)
	return provider
}

func initializeEventBus(cfg *config.Config) events.Publisher {
	if cfg.Events.AMQPURL == "" {
		logger.Warn("AMQP not configured, events will be dropped")
		return events.NoopPublisher{}
	}

	bus, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		logger.Fatal("Failed to connect to event broker", "error", err)
	}
	logger.Info("Event bus connected", "exchange", cfg.Events.Exchange)
	return bus
}

func initializeGinRouter(db *gorm.DB, env string) *gin.Engine {
	if env == "prod" || env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstAdmin creates the bootstrap ADMIN account. Self-registration
// never grants ADMIN, so without this there would be no way to get one.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.Admin.Email
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var existing models.User
	result := db.Where("email = ?", adminEmail).First(&existing)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found. Creating first admin...", "email", adminEmail)

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &models.User{
		Email:           adminEmail,
		PasswordHash:    hash,
		Role:            models.UserRoleAdmin,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)
	return nil
}
