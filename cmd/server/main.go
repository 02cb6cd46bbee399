package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"therapy-agent/internal/config"
	"therapy-agent/internal/core"
	"therapy-agent/internal/db"
	httpserver "therapy-agent/internal/http"
	"therapy-agent/internal/llm"
	"therapy-agent/internal/logger"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.App.LogFilePath, cfg.IsProd())
	defer log.Sync()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL must be set")
	}
	dbConn, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	repo := db.NewRepository(dbConn)
	notifier := db.NewNotifier(dbConn, cfg.App.NotifyChannel)
	agent := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	source := core.NewRecordSource(repo, cfg.Cache.RecordTTL, log)
	chat := core.NewChatService(source, agent, log)
	srv := httpserver.NewServer(repo, source, chat, notifier, log)

	addr := ":" + cfg.App.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Environment))
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
