package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sqlchat/internal/adapter"
	"sqlchat/internal/chat"
	"sqlchat/internal/config"
	"sqlchat/internal/fewshot"
	"sqlchat/internal/llm"
	"sqlchat/internal/logger"
	"sqlchat/internal/memory"
	"sqlchat/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting sqlchat",
		zap.String("db_type", cfg.Database.Type),
		zap.String("model", cfg.LLM.Model),
		zap.String("memory_scope", cfg.Chat.MemoryScope))

	ctx := context.Background()

	model, err := llm.New(llm.Config{
		Model:          cfg.LLM.Model,
		Token:          cfg.LLM.Token,
		BaseURL:        cfg.LLM.BaseURL,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})
	if err != nil {
		log.Fatal("failed to create llm client", zap.Error(err))
	}

	embedder, err := llm.NewEmbedder(model)
	if err != nil {
		log.Fatal("failed to create embedder", zap.Error(err))
	}

	selector, err := fewshot.NewSelector(ctx, embedder, fewshot.Defaults())
	if err != nil {
		log.Fatal("failed to build example index", zap.Error(err))
	}

	db, err := adapter.New(&adapter.Config{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		FilePath: cfg.Database.FilePath,
	})
	if err != nil {
		log.Fatal("failed to create database adapter", zap.Error(err))
	}
	if err := db.Connect(ctx); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	store := memory.NewStore(cfg.Chat.HistoryMaxTurns)
	router := chat.NewRouter(model, db, selector, log, chat.Config{
		TopK:         cfg.Chat.TopK,
		LLMTimeout:   cfg.LLM.Timeout,
		QueryTimeout: cfg.Chat.QueryTimeout,
	})
	srv := server.New(router, db, store, log, cfg.Chat.MemoryScope)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
