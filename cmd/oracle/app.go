package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"oracle/internal/chunker"
	"oracle/internal/config"
	"oracle/internal/domain"
	"oracle/internal/embedding"
	"oracle/internal/embedding/gemini"
	"oracle/internal/embedding/hashing"
	"oracle/internal/embedding/openai"
	llmgemini "oracle/internal/llm/gemini"
	llmopenai "oracle/internal/llm/openai"
	"oracle/internal/loader"
	"oracle/internal/logger"
	"oracle/internal/service"
	"oracle/internal/vectorstore/memory"
	"oracle/internal/vectorstore/qdrant"
)

// app owns the components built from configuration and releases them on Close.
type app struct {
	cfg     *config.AppConfig
	log     zerolog.Logger
	closers []func() error
}

func newApp(opts *rootOptions) (*app, error) {
	var cfg *config.AppConfig
	var err error
	if opts.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.pretty {
		cfg.Log.Pretty = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &app{cfg: cfg, log: logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})}, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) embedder(ctx context.Context) (domain.Embedder, error) {
	var emb domain.Embedder
	switch a.cfg.Embedder.Type {
	case "hashing":
		emb = hashing.NewEmbedder(a.cfg.Embedder.Dimension)
	case "openai":
		c := a.cfg.Embedder.OpenAI
		e, err := openai.NewEmbedder(openai.Config{
			BaseURL:   c.BaseURL,
			APIKeyEnv: c.APIKeyEnv,
			Model:     c.Model,
			Timeout:   time.Duration(c.TimeoutSecs) * time.Second,
			BatchSize: a.cfg.Embedder.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = e
	case "gemini":
		c := a.cfg.Embedder.Gemini
		e, err := gemini.NewEmbedder(ctx, gemini.Config{
			APIKeyEnv: c.APIKeyEnv,
			Model:     c.Model,
			BatchSize: a.cfg.Embedder.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder init failed: %w", err)
		}
		a.closers = append(a.closers, e.Close)
		emb = e
	default:
		return nil, fmt.Errorf("unknown embedder: %s", a.cfg.Embedder.Type)
	}
	return embedding.NewRetrying(emb, a.cfg.Embedder.Retries, a.log), nil
}

func (a *app) index() (domain.VectorIndex, error) {
	switch a.cfg.VectorStore.Type {
	case "memory":
		snapshot := ""
		if a.cfg.VectorStore.Memory != nil {
			snapshot = a.cfg.VectorStore.Memory.Snapshot
		}
		idx, err := memory.NewIndex(snapshot, a.log)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case "qdrant":
		c := a.cfg.VectorStore.Qdrant
		idx, err := qdrant.NewIndex(qdrant.Config{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: os.Getenv(c.APIKeyEnv),
			UseTLS: c.UseTLS,
		}, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, idx.Close)
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", a.cfg.VectorStore.Type)
	}
}

func (a *app) model(ctx context.Context) (domain.LanguageModel, error) {
	switch a.cfg.LLM.Type {
	case "openai":
		c := a.cfg.LLM.OpenAI
		m, err := llmopenai.NewModel(llmopenai.Config{
			BaseURL:   c.BaseURL,
			APIKeyEnv: c.APIKeyEnv,
			Model:     c.Model,
			Timeout:   time.Duration(c.TimeoutSecs) * time.Second,
			MaxTokens: a.cfg.LLM.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("openai llm init failed: %w", err)
		}
		return m, nil
	case "gemini":
		c := a.cfg.LLM.Gemini
		m, err := llmgemini.NewModel(ctx, llmgemini.Config{APIKeyEnv: c.APIKeyEnv, Model: c.Model})
		if err != nil {
			return nil, fmt.Errorf("gemini llm init failed: %w", err)
		}
		a.closers = append(a.closers, m.Close)
		return m, nil
	default:
		return nil, fmt.Errorf("unknown llm: %s", a.cfg.LLM.Type)
	}
}

func (a *app) ingestor(ctx context.Context) (*service.Ingestor, error) {
	emb, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := a.index()
	if err != nil {
		return nil, err
	}
	ch := chunker.NewRecursiveChunker(a.cfg.Chunker.ChunkSize, a.cfg.Chunker.Overlap())
	return service.NewIngestor(loader.NewUniversal(), ch, emb, idx, a.cfg.VectorStore.Collection, a.cfg.Embedder.BatchSize, a.log), nil
}

func (a *app) answerer(ctx context.Context) (*service.Answerer, error) {
	emb, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := a.index()
	if err != nil {
		return nil, err
	}
	llm, err := a.model(ctx)
	if err != nil {
		return nil, err
	}
	r := service.NewRetriever(emb, idx, a.cfg.VectorStore.Collection, a.cfg.Retrieval.K)
	return service.NewAnswerer(r, llm, a.cfg.Retrieval.Refusal, a.log), nil
}
