// Package main provides operator utilities for SquadUp.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"squadup/internal/bootstrap"
	"squadup/internal/cache"
	"squadup/internal/config"
	"squadup/internal/identity"
	"squadup/internal/models"
	"squadup/internal/repository"
	"squadup/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin mint-token <user_id> [ttl]         - Print a signed identity token (not in production)")
	fmt.Println("  go run ./cmd/admin set-role <user_id> <role>          - Change a user's platform role")
	fmt.Println("  go run ./cmd/admin delete-user <admin_id> <user_id>   - Delete a user on behalf of an admin")
	fmt.Println("  go run ./cmd/admin list-staff                         - List moderators, admins and founders")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	var c *cache.Cache
	if rdb != nil {
		c = cache.New(rdb)
	}
	users := repository.NewUserRepository(db, c)

	switch os.Args[1] {
	case "mint-token":
		if len(os.Args) < 3 {
			usage()
		}
		ttl := time.Hour
		if len(os.Args) > 3 {
			if ttl, err = time.ParseDuration(os.Args[3]); err != nil {
				log.Fatalf("Invalid ttl %q: %v", os.Args[3], err)
			}
		}
		mintToken(ctx, cfg, users, parseID(os.Args[2]), ttl)

	case "set-role":
		if len(os.Args) < 4 {
			usage()
		}
		role, err := models.ParseRole(os.Args[3])
		if err != nil {
			log.Fatalf("%v", err)
		}
		setRole(ctx, users, rdb, parseID(os.Args[2]), role)

	case "delete-user":
		if len(os.Args) < 4 {
			usage()
		}
		deleteUser(ctx, users, rdb, parseID(os.Args[2]), parseID(os.Args[3]))

	case "list-staff":
		listStaff(ctx, db, users)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func parseID(raw string) uint {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		log.Fatalf("Invalid user id %q", raw)
	}
	return uint(id)
}

func mintToken(ctx context.Context, cfg *config.Config, users repository.UserRepository, userID uint, ttl time.Duration) {
	if cfg.IsProduction() {
		log.Fatal("Refusing to mint tokens in production; tokens come from the identity provider")
	}
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to load user: %v", err)
	}

	token, err := identity.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, ttl).Issue(user.ID, user.Role)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}

func setRole(ctx context.Context, users repository.UserRepository, rdb *redis.Client, userID uint, role models.Role) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to load user: %v", err)
	}
	if user.Role == role {
		fmt.Printf("User %s (ID: %d) is already %s\n", user.DisplayName, user.ID, role)
		return
	}
	if err := users.UpdateRole(ctx, userID, role); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	if rdb != nil {
		if err := identity.BumpRoleEpoch(ctx, rdb, userID); err != nil {
			log.Printf("Warning: role changed but old tokens were not revoked: %v", err)
		}
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.DisplayName, user.ID, role)
}

func deleteUser(ctx context.Context, users repository.UserRepository, rdb *redis.Client, adminID, targetID uint) {
	admin, err := users.GetByID(ctx, adminID)
	if err != nil {
		log.Fatalf("Failed to load acting admin: %v", err)
	}

	var revoke func(context.Context, uint) error
	if rdb != nil {
		revoke = func(ctx context.Context, id uint) error { return identity.BumpRoleEpoch(ctx, rdb, id) }
	}
	svc := service.NewAdminService(users, revoke)
	if err := svc.DeleteUser(ctx, models.Actor{ID: admin.ID, Role: admin.Role}, targetID); err != nil {
		log.Fatalf("Failed to delete user: %v", err)
	}
	fmt.Printf("✅ Deleted user %d\n", targetID)
}

func listStaff(ctx context.Context, db *gorm.DB, users repository.UserRepository) {
	svc := service.NewAdminService(users, nil)
	staff, err := svc.ListStaff(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch staff: %v", err)
	}
	if len(staff) == 0 {
		fmt.Println("No staff found in the system")
		return
	}

	var total int64
	db.Model(&models.User{}).Count(&total)

	fmt.Println("\n📋 Current Staff:")
	fmt.Println("─────────────────────────────────────")
	for _, u := range staff {
		fmt.Printf("ID: %d | Name: %s | Role: %s\n", u.ID, u.DisplayName, u.Role)
	}
	fmt.Println("─────────────────────────────────────")
	fmt.Printf("%d of %d users\n", len(staff), total)
}
