// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"squadup/internal/database"
	"squadup/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory database with the full schema.
// The pool is pinned to one connection so every query sees the same database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:squadup_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given display name and role.
func CreateUser(t testing.TB, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{DisplayName: name, AvatarURL: "https://cdn.squadup.test/" + name + ".png", Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// CreateTeam inserts a team owned by owner with owner and extra members on the roster.
func CreateTeam(t testing.TB, db *gorm.DB, name string, owner *models.User, members ...*models.User) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, OwnerID: owner.ID, IsRecruiting: true}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	for _, u := range append([]*models.User{owner}, members...) {
		if err := db.Create(&models.TeamMember{TeamID: team.ID, UserID: u.ID}).Error; err != nil {
			t.Fatalf("add member %d: %v", u.ID, err)
		}
	}
	return team
}
