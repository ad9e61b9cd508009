package main

import (
	"fmt"
	"time"

	"github.com/ashutoshrp06/search-agent/internal/config"
	"github.com/ashutoshrp06/search-agent/internal/llm"
	"github.com/ashutoshrp06/search-agent/internal/session"
	"github.com/ashutoshrp06/search-agent/internal/tools"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildRegistry registers the tools enabled by cfg. Web search needs an API
// key; page fetching does not.
func buildRegistry(cfg *config.Config) *tools.Registry {
	registry := tools.NewRegistry()
	if cfg.Search.APIKey != "" {
		registry.MustRegister(tools.NewSearchTool(tools.SearchConfig{
			APIKey:     cfg.Search.APIKey,
			BaseURL:    cfg.Search.BaseURL,
			Timeout:    cfg.SearchTimeout(),
			MaxResults: cfg.Search.MaxResults,
		}))
	}
	if cfg.Search.FetchEnabled {
		registry.MustRegister(tools.NewFetchTool(cfg.SearchTimeout()))
	}
	return registry
}

// newSession wires the model client, tools and policy from cfg into a fresh
// session.
func newSession(cfg *config.Config, logger *zap.Logger) (*session.Session, error) {
	registry := buildRegistry(cfg)

	client := llm.NewClient(llm.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLMTimeout(),
		Logger:  logger,
	})

	mode, err := session.ParseMode(cfg.Agent.ToolMode)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(session.Defaults{
		Invoker: client,
		Settings: llm.Settings{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			ToolChoice:  llm.ToolChoiceAuto,
		},
		SystemPrompt: llm.BuildSystemPrompt(cfg.Agent.SystemPromptPath, registry.Schemas(), time.Now()),
		Registry:     registry,
		Policy: session.Policy{
			Mode:      mode,
			MaxRounds: cfg.Agent.MaxRounds,
			Stream:    cfg.Agent.Stream,
		},
		MaxToolCalls: cfg.Agent.MaxToolCalls,
	}, logger)

	sess, err := manager.Create("")
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Info("Session ready",
		zap.String("session", sess.ID()),
		zap.String("model", cfg.LLM.Model),
		zap.Strings("tools", registry.List()),
		zap.String("mode", cfg.Agent.ToolMode))
	return sess, nil
}

// createLogger builds the logger. The full-screen UI owns the terminal, so it
// only logs when a file is configured.
func createLogger(cfg config.LoggingConfig, verbose, interactive bool) (*zap.Logger, error) {
	if interactive && cfg.File == "" {
		return zap.NewNop(), nil
	}

	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	} else if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	}
	return zcfg.Build()
}
