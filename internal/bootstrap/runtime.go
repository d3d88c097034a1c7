// Package bootstrap wires the process-wide runtime: database, Redis and the
// optional development staff grant.
package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"squadup/internal/cache"
	"squadup/internal/config"
	"squadup/internal/database"
	"squadup/internal/identity"
	"squadup/internal/middleware"
	"squadup/internal/models"
	"squadup/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// RequireRedis fails startup when Redis is unreachable instead of running
	// without realtime push, distributed rate limits and role epochs.
	RequireRedis bool
}

// InitRuntime connects to the database and Redis and applies the development
// staff grant. The returned Redis client is nil when Redis is unreachable and
// not required.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		if opts.RequireRedis {
			return nil, nil, err
		}
		middleware.Logger.Warn("redis unavailable, continuing without it", "error", err)
		rdb = nil
	}

	if err := GrantDevStaff(ctx, cfg, db, rdb); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development staff: %w", err)
	}

	return db, rdb, nil
}

// GrantDevStaff promotes every id listed in DEV_BOOTSTRAP_STAFF to founder.
// It does nothing in production.
func GrantDevStaff(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) error {
	if cfg == nil || db == nil || cfg.IsProduction() {
		return nil
	}
	ids, err := ParseStaffIDs(cfg.DevBootstrapStaff)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	var c *cache.Cache
	if rdb != nil {
		c = cache.New(rdb)
	}
	users := repository.NewUserRepository(db, c)
	for _, id := range ids {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				middleware.Logger.Warn("dev staff user does not exist", "user_id", id)
				continue
			}
			return err
		}
		if user.Role == models.RoleFounder {
			continue
		}
		if err := users.UpdateRole(ctx, id, models.RoleFounder); err != nil {
			return err
		}
		// Tokens minted before the grant still assert the old role.
		if err := identity.BumpRoleEpoch(ctx, rdb, id); err != nil {
			middleware.Logger.Warn("failed to bump role epoch", "user_id", id, "error", err)
		}
		middleware.Logger.Info("granted founder role for development", "user_id", id)
	}
	return nil
}

// ParseStaffIDs parses a comma separated list of user ids.
func ParseStaffIDs(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid DEV_BOOTSTRAP_STAFF entry %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
