// Package bootstrap wires the database, schema and Redis for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"thoughtforum/internal/cache"
	"thoughtforum/internal/config"
	"thoughtforum/internal/database"
	"thoughtforum/internal/middleware"
	"thoughtforum/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCategories upserts the built-in categories after the schema is applied.
	SeedCategories bool
}

// InitRuntime connects to the database, applies the schema, connects to Redis
// and optionally seeds the built-in categories. The Redis client is nil when
// Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := Prepare(ctx, db, cfg, opts); err != nil {
		return nil, nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

// Prepare applies the schema to an open database and runs the requested seeding.
func Prepare(ctx context.Context, db *gorm.DB, cfg *config.Config, opts Options) error {
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if opts.SeedCategories {
		categories, err := seed.Categories(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to seed built-in categories: %w", err)
		}
		middleware.Logger.InfoContext(ctx, "built-in categories ensured", slog.Int("count", len(categories)))
	}
	return nil
}
