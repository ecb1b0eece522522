package main

import (
	"context"
	"flag"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/kataras/golog"

	"ragserver/internal/chunker"
	"ragserver/internal/config"
	"ragserver/internal/embedding/openai"
	"ragserver/internal/engine"
	"ragserver/internal/index"
	"ragserver/internal/loader"
	"ragserver/internal/tui"
	"ragserver/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		golog.Fatalf("failed to load config: %v", err)
	}

	logger := golog.New()
	logger.SetLevel(cfg.LogLevel)

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.OpenAI.BaseURL,
		APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
		Model:     cfg.Embedder.OpenAI.Model,
		Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Fatalf("embedder init failed: %v", err)
	}

	idx := vectorstore.NewMemory()
	builder := index.New(embedder, idx, index.Config{
		BatchSize:       cfg.Indexer.BatchSize,
		Cooldown:        time.Duration(cfg.Indexer.CooldownSecs) * time.Second,
		ThrottleBackoff: time.Duration(cfg.Indexer.ThrottleBackoffSecs) * time.Second,
	}, logger)

	eng, err := engine.New(context.Background(), engine.Params{
		DocumentsDir: cfg.DocumentsDir,
		Loader:       loader.New(logger),
		Chunker:      chunker.NewRecursiveSplitter(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		Builder:      builder,
		Embedder:     embedder,
		Index:        idx,
		Logger:       logger,
	})
	if eng == nil {
		logger.Fatalf("engine init failed: %v", err)
	}
	if err != nil {
		logger.Errorf("index build incomplete: %v", err)
	}

	if _, err := tea.NewProgram(tui.New(eng, cfg.Retriever.TopK)).Run(); err != nil {
		logger.Fatalf("console stopped: %v", err)
	}
}
