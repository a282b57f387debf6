package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-versions/internal/config"
	"github.com/jonathan/resume-versions/internal/db"
	"github.com/jonathan/resume-versions/internal/generation"
	"github.com/jonathan/resume-versions/internal/history"
	"github.com/jonathan/resume-versions/internal/ingestion"
	"github.com/jonathan/resume-versions/internal/llm"
	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/store"
	"github.com/jonathan/resume-versions/internal/types"
)

// newLLMClient is swapped out by tests
var newLLMClient = llm.NewClient

// app holds the dependencies one command invocation needs
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   store.VersionStore
	manager *history.Manager
	closers []func()
}

// openApp loads configuration, applies flag overrides and opens the version store. When migrate
// is set, a postgres store has its schema brought up to date first.
func openApp(ctx context.Context, cmd *cobra.Command, opts *rootOptions, migrate bool) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, log.Sync)

	s, closeStore, err := openStore(ctx, cfg, log, migrate)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, closeStore)
	a.manager = history.NewManager(s, log)
	return a, nil
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StoreBackend = opts.storeBackend
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if flags.Changed("log-mode") {
		cfg.LogMode = opts.logMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(mode string) (*logger.Logger, error) {
	if mode == "silent" {
		return logger.NewNop(), nil
	}
	return logger.New(mode)
}

// openStore builds the configured backend and returns its release function
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, migrate bool) (store.VersionStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(log), func() {}, nil

	case config.BackendPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err := database.Migrate(ctx); err != nil {
				database.Close()
				return nil, nil, err
			}
		}
		return database, database.Close, nil

	case config.BackendRedis:
		rs, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return rs, func() { _ = rs.Close() }, nil

	default:
		return store.NewFileStore(cfg.DataDir, log), func() {}, nil
	}
}

// orchestrator builds the LLM client and the generation orchestrator on top of the manager
func (a *app) orchestrator(ctx context.Context) (*generation.Orchestrator, error) {
	if a.cfg.APIKey() == "" {
		return nil, fmt.Errorf("no API key configured for provider %q (set GEMINI_API_KEY or ANTHROPIC_API_KEY)", a.cfg.LLMProvider)
	}

	llmCfg := llm.ConfigForProvider(llm.Provider(a.cfg.LLMProvider))
	if a.cfg.GenerationModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierAdvanced, a.cfg.GenerationModel)
	}
	client, err := newLLMClient(ctx, llmCfg, a.cfg.APIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	return generation.NewOrchestrator(client, a.manager, a.log,
		generation.WithTimeout(a.cfg.Timeout()),
		generation.WithJobFetcher(ingestion.NewFetcher(a.log)),
	), nil
}

// close releases resources in reverse order of acquisition
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readResume(path string) (types.ResumeData, error) {
	var resume types.ResumeData
	data, err := os.ReadFile(path)
	if err != nil {
		return resume, fmt.Errorf("failed to read resume file: %w", err)
	}
	if err := json.Unmarshal(data, &resume); err != nil {
		return resume, fmt.Errorf("failed to parse resume JSON %s: %w", path, err)
	}
	return resume, nil
}

// readJobFile reads a job description from disk and normalizes its whitespace
func readJobFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description file: %w", err)
	}
	return ingestion.CleanText(string(data)), nil
}
