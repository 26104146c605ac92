package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/pkg/config"
	"github.com/inkpath/engine/pkg/database"
	"github.com/inkpath/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.OpenPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	log.Info("running migrations")
	if err := db.AutoMigrate(
		&models.User{},
		&models.Comic{},
		&models.Revision{},
		&models.Page{},
		&models.Upload{},
		&models.Notification{},
	); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migrations complete")
}
