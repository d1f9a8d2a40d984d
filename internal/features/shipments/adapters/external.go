package adapters

import (
	"context"
	"fmt"

	"courier-portal/internal/core/config"
	"courier-portal/internal/features/shipments/ports"
)

// Connector returns the connector matching the configured backend URL, or nil
// when no external backend is configured. http(s) URLs select the REST
// backend; postgres URLs select the SQL backend.
func Connector(cfg config.ExternalConfig) ports.BackendConnector {
	if !cfg.Enabled() {
		return nil
	}
	return func(ctx context.Context) (ports.Backend, error) {
		switch cfg.Scheme() {
		case "http", "https":
			b := NewRestBackend(cfg)
			if err := b.HealthCheck(ctx); err != nil {
				b.Close()
				return nil, err
			}
			return b, nil
		case "postgres", "postgresql":
			b, err := OpenSQLBackend(ctx, cfg)
			if err != nil {
				return nil, err
			}
			if err := b.Migrate(ctx); err != nil {
				b.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("unsupported external backend scheme %q", cfg.Scheme())
		}
	}
}
