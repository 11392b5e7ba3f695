package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

// Supported values of warehouse.driver.
const (
	DriverBigQuery = "bigquery"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Open builds the backend named by warehouse.driver (bigquery when unset).
func Open(ctx context.Context, cfg pkgconfig.Config, ids IDGenerator) (Inserter, error) {
	driver := strings.ToLower(cfg.GetString("warehouse.driver"))
	if driver == "" {
		driver = DriverBigQuery
	}
	autoCreate := cfg.GetBool("warehouse.auto_create")

	slog.InfoContext(ctx, "opening warehouse", "driver", driver, "auto_create", autoCreate)

	switch driver {
	case DriverBigQuery:
		return NewBigQuery(ctx, cfg.GetString("warehouse.project"), ids)
	case DriverSQLite:
		path := cfg.GetString("warehouse.sqlite.path")
		if path == "" {
			path = "goweave.db"
		}
		return NewSQLite(path, ids, autoCreate)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.GetString("warehouse.postgres.dsn"), ids, autoCreate)
	case DriverMongo:
		return NewMongo(ctx, cfg.GetString("warehouse.mongo.uri"), ids, autoCreate)
	case DriverMemory:
		return NewMemory(autoCreate), nil
	default:
		return nil, fmt.Errorf("unknown warehouse driver %q", driver)
	}
}
