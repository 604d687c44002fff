package main

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/client"
	"github.com/at-ishikawa/ecoute/internal/config"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

func openRepositories(cfg *config.Config) (*sentence.CSVRepository, *attempt.CSVRepository, error) {
	sentences, err := sentence.NewCSVRepository(cfg.Data.SentencesPath())
	if err != nil {
		return nil, nil, fmt.Errorf("sentence.NewCSVRepository() > %w", err)
	}
	attempts, err := attempt.NewCSVRepository(cfg.Data.AttemptsPath())
	if err != nil {
		return nil, nil, fmt.Errorf("attempt.NewCSVRepository() > %w", err)
	}
	return sentences, attempts, nil
}

func newAPIClient(cfg *config.Config) *client.Client {
	return client.NewClient(
		cfg.Client.BaseURL,
		time.Duration(cfg.Client.TimeoutSeconds)*time.Second,
		uint(cfg.Client.RetryAttempts),
	)
}
