package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/config"
	"github.com/yourusername/turfsim/internal/repository"
)

// NewSource builds the configured HistoricalSource implementation
func NewSource(cfg *config.Config, repos *repository.Repositories, logger *logrus.Logger) (HistoricalSource, error) {
	switch cfg.DataSource.Provider {
	case "remote":
		httpCfg := DefaultHTTPClientConfig()
		if cfg.DataSource.RateLimit > 0 {
			httpCfg.RateLimit = cfg.DataSource.RateLimit
		}
		if cfg.DataSource.TimeoutSeconds > 0 {
			httpCfg.Timeout = time.Duration(cfg.DataSource.TimeoutSeconds) * time.Second
		}
		if cfg.DataSource.MaxRetries > 0 {
			httpCfg.MaxRetries = cfg.DataSource.MaxRetries
		}
		return NewRemoteSource(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, httpCfg, logger), nil

	case "postgres":
		if repos == nil {
			return nil, fmt.Errorf("postgres data source requires repositories")
		}
		return NewPostgresSource(repos), nil

	case "memory":
		return NewMemorySource(), nil

	default:
		return nil, fmt.Errorf("unknown data source provider: %s", cfg.DataSource.Provider)
	}
}
