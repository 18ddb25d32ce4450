package main

import (
	"fmt"
	"os"
	"time"

	"mealflow/configs"
	"mealflow/middlewares"
	"mealflow/payments"
	"mealflow/pkg/mailer"
	"mealflow/routes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := configs.LoadConfig()

	// DB
	if err := configs.ConnectionDB(cfg); err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	db := configs.DB()

	if err := configs.SetupDatabase(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := configs.SeedAdmin(); err != nil {
		log.Fatal().Err(err).Msg("seed admin failed")
	}
	if err := configs.SeedCatalog(); err != nil {
		log.Fatal().Err(err).Msg("seed catalog failed")
	}

	// Payment gateway
	var gateway payments.Gateway
	if cfg.StripeSecretKey != "" {
		gw, err := payments.NewStripeGateway(payments.StripeConfig{
			APIKey:        cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			FrontendURL:   cfg.FrontendURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("stripe gateway init failed")
		}
		gateway = gw
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set: card payments disabled")
	}

	// OTP delivery
	var sender mailer.Sender = mailer.LogSender{}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		sender = mailer.SMTPSender{
			Host:     host,
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		}
	}

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.CORSMiddleware(cfg.FrontendURL))

	routes.RegisterRoutes(r, db, cfg, gateway, sender)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
