package main

import (
	stdLog "log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/bookshare-service/chat/app"
	"github.com/Astemirdum/bookshare-service/chat/config"
)

// @title Bookshare chat API
// @version 1.0
// @description Chat sessions, messages and the realtime socket.
// @BasePath /
func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("load envs from .env ", zap.Error(err))
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
		config.WithMigrationsTable("chat_db_version"),
	)

	app.Run(cfg)
}
