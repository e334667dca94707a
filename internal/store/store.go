// Package store persists enriched service tables, named scenarios, and the
// generated-insight cache behind a backend-agnostic interface. SQLite is
// the default backend; Postgres is available for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// Store defines the persistence interface for the revenue analytics stack.
type Store interface {
	// Services
	ReplaceServices(ctx context.Context, records []model.ServiceRecord) error
	ListServices(ctx context.Context) ([]model.ServiceRecord, error)

	// Scenarios. ListScenarios returns insertion order; saving an existing
	// name replaces the payload but keeps the original position.
	SaveScenario(ctx context.Context, sc model.Scenario) error
	GetScenario(ctx context.Context, name string) (*model.Scenario, error)
	ListScenarios(ctx context.Context) ([]model.Scenario, error)

	// Insight cache
	GetCachedInsight(ctx context.Context, key string) (string, error)
	SetCachedInsight(ctx context.Context, key, content string, ttl time.Duration) error
	DeleteExpiredInsights(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
