package seed

import (
	"testing"
	"time"

	"squadup/internal/models"
	"squadup/internal/validation"
)

func TestFactory_DryRunAssignsSyntheticIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, MaxDays: 3, RandSeed: 1})

	u1, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u2, err := f.CreateUser(func(u *models.User) { u.Role = models.RoleCoach })
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u1.ID == 0 || u2.ID == u1.ID {
		t.Fatalf("expected distinct synthetic ids, got %d and %d", u1.ID, u2.ID)
	}
	if u2.Role != models.RoleCoach {
		t.Fatalf("override not applied: %s", u2.Role)
	}
	if time.Since(u1.CreatedAt) > 4*24*time.Hour {
		t.Fatalf("created_at too old: %v", u1.CreatedAt)
	}
	if len(u1.Country) != 2 {
		t.Fatalf("unexpected country code %q", u1.Country)
	}
}

func TestFactory_GeneratedValuesAreValid(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, RandSeed: 99})

	for i := 0; i < 50; i++ {
		if err := validation.ValidateTeamName(f.TeamName()); err != nil {
			t.Fatalf("generated invalid team name: %v", err)
		}

		roles := f.GameRoles(3)
		if len(roles) == 0 || len(roles) > 3 {
			t.Fatalf("unexpected role count %d", len(roles))
		}
		seen := map[models.GameRole]bool{}
		for _, r := range roles {
			if seen[r] {
				t.Fatalf("duplicate role %s", r)
			}
			seen[r] = true
		}
	}
}
