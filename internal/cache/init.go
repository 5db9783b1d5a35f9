package cache

import (
	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/logger"
)

// Initialize initializes the cache system
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache system", "enabled", cfg.Cache.Enabled)
	return NewInMemoryCache(cfg)
}
