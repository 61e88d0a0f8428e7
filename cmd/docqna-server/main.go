package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docqna/internal/config"
	"docqna/internal/embedding"
	"docqna/internal/llm"
	"docqna/internal/loader"
	"docqna/internal/pipeline"
	"docqna/internal/server"
	"docqna/internal/session"
	"docqna/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	store, err := vectorstore.New(&cfg.VectorStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	generator, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	sessions := session.NewMemoryStore()
	svc := pipeline.NewService(loader.FileLoader{}, embedder, generator, store, sessions, &cfg.RAG)

	srv := server.New(svc, sessions, cfg.Server.Addr, cfg.Server.UploadDir)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
