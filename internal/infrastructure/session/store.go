package session

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/service"
)

// NewStore builds the session store selected by cfg.Session.Store
func NewStore(ctx context.Context, cfg *config.Config) (service.SessionStore, error) {
	if cfg.Session.UsesMemory() {
		return NewMemoryStore(cfg.Session.MemorySize, cfg.Session.TTL), nil
	}
	return NewRedisStore(ctx, &cfg.Redis)
}
