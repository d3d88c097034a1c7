package seed

import (
	_ "embed"
	"errors"
	"fmt"

	"squadup/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// StaffFixture is a built-in account.
type StaffFixture struct {
	DisplayName string            `yaml:"display_name"`
	Role        models.Role       `yaml:"role"`
	Country     string            `yaml:"country"`
	Rank        string            `yaml:"rank"`
	GameRoles   []models.GameRole `yaml:"game_roles"`
}

// TeamFixture is a built-in team owned by a staff fixture.
type TeamFixture struct {
	Name         string            `yaml:"name"`
	Owner        string            `yaml:"owner"`
	MinRank      string            `yaml:"min_rank"`
	MaxRank      string            `yaml:"max_rank"`
	SeekingRoles []models.GameRole `yaml:"seeking_roles"`
}

// TournamentFixture is a built-in tournament listing.
type TournamentFixture struct {
	Name      string                  `yaml:"name"`
	Organizer string                  `yaml:"organizer"`
	Status    models.TournamentStatus `yaml:"status"`
}

// Fixtures is the parsed fixture document.
type Fixtures struct {
	Staff       []StaffFixture      `yaml:"staff"`
	Teams       []TeamFixture       `yaml:"teams"`
	Tournaments []TournamentFixture `yaml:"tournaments"`
}

// DefaultFixtures returns the fixtures compiled into the binary.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// ParseFixtures decodes and checks a fixture document. Teams and tournaments
// must reference staff declared in the same document.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	staff := make(map[string]bool, len(fx.Staff))
	for _, s := range fx.Staff {
		if s.DisplayName == "" {
			return nil, errors.New("staff fixture without display_name")
		}
		if !s.Role.Valid() {
			return nil, fmt.Errorf("staff %s: unknown role %q", s.DisplayName, s.Role)
		}
		if staff[s.DisplayName] {
			return nil, fmt.Errorf("staff %s declared twice", s.DisplayName)
		}
		staff[s.DisplayName] = true
	}
	for _, t := range fx.Teams {
		if !staff[t.Owner] {
			return nil, fmt.Errorf("team %s: unknown owner %q", t.Name, t.Owner)
		}
	}
	for _, t := range fx.Tournaments {
		if !staff[t.Organizer] {
			return nil, fmt.Errorf("tournament %s: unknown organizer %q", t.Name, t.Organizer)
		}
		if t.Status != models.TournamentApproved && t.Status != models.TournamentPendingApproval {
			return nil, fmt.Errorf("tournament %s: unknown status %q", t.Name, t.Status)
		}
	}
	return &fx, nil
}

// ApplyFixtures writes fx to db. Rows are matched by name so applying the
// same fixtures twice leaves one copy of each. It returns the staff users by
// display name.
func ApplyFixtures(db *gorm.DB, fx *Fixtures) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(fx.Staff))

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, s := range fx.Staff {
			u := models.User{
				DisplayName: s.DisplayName,
				Role:        s.Role,
				Country:     s.Country,
				Rank:        s.Rank,
				GameRoles:   s.GameRoles,
				AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.DisplayName),
			}
			if err := tx.Where(models.User{DisplayName: s.DisplayName}).
				Assign(models.User{Role: s.Role, Country: s.Country, Rank: s.Rank}).
				FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("staff %s: %w", s.DisplayName, err)
			}
			users[s.DisplayName] = &u
		}

		for _, t := range fx.Teams {
			owner := users[t.Owner]
			team := models.Team{
				Name:         t.Name,
				OwnerID:      owner.ID,
				MinRank:      t.MinRank,
				MaxRank:      t.MaxRank,
				IsRecruiting: true,
				SeekingRoles: t.SeekingRoles,
			}
			res := tx.Where(models.Team{Name: t.Name, OwnerID: owner.ID}).FirstOrCreate(&team)
			if res.Error != nil {
				return fmt.Errorf("team %s: %w", t.Name, res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			if err := tx.Create(&models.TeamMember{TeamID: team.ID, UserID: owner.ID, GameRoles: owner.GameRoles}).Error; err != nil {
				return fmt.Errorf("team %s owner seat: %w", t.Name, err)
			}
		}

		for _, t := range fx.Tournaments {
			tournament := models.Tournament{Name: t.Name, OrganizerID: users[t.Organizer].ID, Status: t.Status}
			if err := tx.Where(models.Tournament{Name: t.Name}).
				Assign(models.Tournament{Status: t.Status}).
				FirstOrCreate(&tournament).Error; err != nil {
				return fmt.Errorf("tournament %s: %w", t.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
