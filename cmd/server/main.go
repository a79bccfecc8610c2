package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/courier/internal/config"
	"github.com/example/courier/internal/database"
	"github.com/example/courier/internal/handlers"
	"github.com/example/courier/internal/logging"
	"github.com/example/courier/internal/repository"
	"github.com/example/courier/internal/routes"
	"github.com/example/courier/internal/services"
	"github.com/example/courier/internal/utils"
)

func main() {
	cfg := config.Load()
	appLog := logging.New(cfg.LogLevel)
	db := database.Connect(cfg.DatabaseURL)

	var mailer services.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = services.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		appLog.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
		mailer = services.NewLogMailer(appLog)
	}

	var documents services.DocumentStore
	if cfg.S3Bucket != "" {
		store, err := services.NewS3Store(context.Background(), services.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatalf("failed to configure document storage: %v", err)
		}
		documents = store
	} else {
		documents = services.NewLocalStore(cfg.UploadDir)
	}

	registry := repository.NewAccountRegistry(db)
	verification := services.NewVerificationService(
		registry,
		utils.NewOTPGenerator(cfg.OTPLength, cfg.OTPExpires),
		utils.NewSigner(cfg.JWTSecret, cfg.TokenExpires),
		mailer,
		services.MailSettings{Subject: cfg.MailSubject},
		appLog,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Courier Backend",
		ErrorHandler: handlers.ErrorHandler(appLog),
		BodyLimit:    20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, routes.Deps{
		DB:           db,
		Config:       cfg,
		Registry:     registry,
		Verification: verification,
		Mailer:       mailer,
		Documents:    documents,
		Telegram:     services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, appLog),
		Log:          appLog,
	})

	appLog.Info("starting server", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
