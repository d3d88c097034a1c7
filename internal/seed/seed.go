package seed

import (
	"fmt"
	"log"

	"squadup/internal/database"
	"squadup/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	NumTeams int
	// MaxDays bounds how far back generated timestamps reach.
	MaxDays int
	// RandSeed makes generated data reproducible when non-zero.
	RandSeed int64
	DryRun   bool
}

// Summary counts what a seeding run wrote.
type Summary struct {
	Users          int
	Teams          int
	Friendships    int
	FriendRequests int
	Applications   int
	Invites        int
	Chats          int
}

// Seeder populates a database with fixtures plus generated players.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder. NumUsers and NumTeams default to 40 and 8.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 40
	}
	if opts.NumTeams <= 0 {
		opts.NumTeams = 8
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll deletes every row from every schema-managed table.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}

// Run applies the built-in fixtures and then generates players, teams and
// pending social activity aimed at the staff accounts so their
// notification feeds are populated.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary

	var staff map[string]*models.User
	if !s.opts.DryRun {
		fx, err := DefaultFixtures()
		if err != nil {
			return sum, err
		}
		if staff, err = ApplyFixtures(s.db, fx); err != nil {
			return sum, fmt.Errorf("apply fixtures: %w", err)
		}
		log.Printf("✓ %d staff accounts ready", len(staff))
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	log.Printf("✓ %d players created", sum.Users)

	teams, err := s.seedTeams(users, &sum)
	if err != nil {
		return sum, err
	}
	if err := s.seedSocial(users, &sum); err != nil {
		return sum, err
	}
	if err := s.seedInboxes(users, teams, staff, &sum); err != nil {
		return sum, err
	}

	log.Printf("🎉 Seeding complete: %+v", sum)
	return sum, nil
}

// seedTeams gives each team a distinct owner and up to three members drawn
// from the players that are not yet rostered.
func (s *Seeder) seedTeams(users []*models.User, sum *Summary) ([]*models.Team, error) {
	rng := s.factory.rng
	free := rng.Perm(len(users))
	var teams []*models.Team

	for i := 0; i < s.opts.NumTeams && len(free) > 0; i++ {
		owner := users[free[0]]
		free = free[1:]

		var members []*models.User
		for n := rng.Intn(4); n > 0 && len(free) > 0; n-- {
			members = append(members, users[free[0]])
			free = free[1:]
		}
		team, err := s.factory.CreateTeam(owner, members)
		if err != nil {
			return nil, fmt.Errorf("create team: %w", err)
		}
		teams = append(teams, team)
	}
	sum.Teams = len(teams)
	log.Printf("✓ %d teams created", sum.Teams)
	return teams, nil
}

// seedSocial links each player to its ring neighbour, opens a chat for
// every third friendship and leaves a pending request to the player two
// places ahead.
func (s *Seeder) seedSocial(users []*models.User, sum *Summary) error {
	n := len(users)
	if n < 2 {
		return nil
	}
	for i, u := range users {
		if n == 2 && i == 1 {
			break
		}
		next := users[(i+1)%n]
		if err := s.factory.CreateFriendship(u, next); err != nil {
			return fmt.Errorf("create friendship: %w", err)
		}
		sum.Friendships++

		if i%3 == 0 {
			if _, err := s.factory.CreateChat(u, next, 2+s.factory.rng.Intn(6)); err != nil {
				return fmt.Errorf("create chat: %w", err)
			}
			sum.Chats++
		}
		if i%2 == 0 && n > 4 {
			if _, err := s.factory.CreateFriendRequest(u, users[(i+2)%n]); err != nil {
				return fmt.Errorf("create friend request: %w", err)
			}
			sum.FriendRequests++
		}
	}
	log.Printf("✓ %d friendships, %d pending requests, %d chats", sum.Friendships, sum.FriendRequests, sum.Chats)
	return nil
}

// seedInboxes files applications from unrostered players and sends every
// staff account one invite and one friend request.
func (s *Seeder) seedInboxes(users []*models.User, teams []*models.Team, staff map[string]*models.User, sum *Summary) error {
	if len(teams) == 0 {
		return nil
	}

	rostered := make(map[uint]bool)
	if !s.opts.DryRun {
		var ids []uint
		if err := s.db.Model(&models.TeamMember{}).Pluck("user_id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			rostered[id] = true
		}
	}

	for i, u := range users {
		if rostered[u.ID] || i%2 == 1 {
			continue
		}
		team := teams[i%len(teams)]
		if _, err := s.factory.CreateTeamApplication(team, u, models.ApplicationTypeApplication); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		sum.Applications++
	}

	i := 0
	for _, member := range staff {
		team := teams[i%len(teams)]
		if _, err := s.factory.CreateTeamApplication(team, member, models.ApplicationTypeInvite); err != nil {
			return fmt.Errorf("create invite: %w", err)
		}
		sum.Invites++
		if len(users) > 0 {
			if _, err := s.factory.CreateFriendRequest(users[i%len(users)], member); err != nil {
				return fmt.Errorf("create staff friend request: %w", err)
			}
			sum.FriendRequests++
		}
		i++
	}
	log.Printf("✓ %d applications, %d invites", sum.Applications, sum.Invites)
	return nil
}
