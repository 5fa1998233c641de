package main

import (
	stdLog "log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/bookshare-service/library/app"
	"github.com/Astemirdum/bookshare-service/library/config"
)

// @title Bookshare library API
// @version 1.0
// @description Books, borrow transactions and notifications.
// @BasePath /
func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("load envs from .env ", zap.Error(err))
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
		config.WithMigrationsTable("library_db_version"),
	)

	app.Run(cfg)
}
