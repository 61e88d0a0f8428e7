package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docqna/internal/config"
	"docqna/internal/embedding"
	"docqna/internal/helper"
	"docqna/internal/llm"
	"docqna/internal/loader"
	"docqna/internal/pipeline"
	"docqna/internal/session"
	"docqna/internal/tui"
	"docqna/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file (pdf or docx)")
	numQuestions := flag.Int("questions", 3, "Number of Q&A pairs to generate")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	store, err := vectorstore.New(&cfg.VectorStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}

	ctx := context.Background()
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

	userID, err := helper.GenerateUUID()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating user id")
	}

	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(*filePath), "."))
	log.Info().Str("file", *filePath).Msg("Ingesting document")
	res, err := svc.Ingest(ctx, *filePath, fileType, userID, *numQuestions)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	if res.Degraded {
		log.Warn().Msg("Q&A generation used the fallback parser")
	}

	m := tui.New(svc, sessions, userID, res.Pairs)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal().Err(err).Msg("TUI error")
	}
}
