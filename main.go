// @title Bespoke Assessment API
// @version 1.0
// @description Backend for the Bespoke employee assessment experience.

// @contact.name Beforest Engineering

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"github.com/harshaislive/bespoke/internal/app"
	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/pkg/configwatcher"
	"github.com/harshaislive/bespoke/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development convenience, ignored when the file is absent.
	godotenv.Load()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig("configs/config.yaml", func(updated *config.Config) {
		logger.Log.Info("Configuration reloaded", zap.String("path", "configs/config.yaml"))
		application.Config.OpenAI = updated.OpenAI
		application.Config.Knowledge = updated.Knowledge
		application.Config.CORS = updated.CORS
		application.Config.RateLimit = updated.RateLimit
	})

	application.Run()
}
