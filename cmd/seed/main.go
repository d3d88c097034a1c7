// Command main runs the database seeder for SquadUp.
package main

import (
	"flag"
	"log"
	"os"

	"squadup/internal/config"
	"squadup/internal/database"
	"squadup/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 40, "Number of players to create")
	numTeams := flag.Int("teams", 8, "Number of teams to create")
	shouldClean := flag.Bool("clean", false, "Delete all rows before seeding")
	dryRun := flag.Bool("dry-run", false, "Log generated rows without writing them")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = clock)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d players, %d teams, clean=%v dry-run=%v\n", *numUsers, *numTeams, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers: *numUsers,
		NumTeams: *numTeams,
		RandSeed: *randSeed,
		DryRun:   *dryRun,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if _, err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Mint a token for any user with: go run ./cmd/admin mint-token <user_id>")
}
