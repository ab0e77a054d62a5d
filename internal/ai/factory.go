package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewReplier constructs the provider named by cfg.Provider.
func NewReplier(ctx context.Context, cfg Config, log zerolog.Logger) (Replier, error) {
	switch cfg.Provider {
	case "ark":
		return NewArkReplier(ctx, cfg, log)
	case "rest":
		return NewRESTReplier(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown reply provider %q", cfg.Provider)
	}
}
