// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"squadup/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var ranks = []string{
	"Iron", "Bronze", "Silver", "Gold", "Platinum", "Diamond", "Ascendant", "Immortal", "Radiant",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) create(value any, label string) error {
	if f.opts.DryRun {
		log.Printf("[dry-run] %s: %+v", label, value)
		return nil
	}
	return f.db.Create(value).Error
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// pastTime returns a moment within the last opts.MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// GameRoles picks between one and limit distinct in-team positions.
func (f *Factory) GameRoles(limit int) models.GameRoleList {
	if limit <= 0 || limit > len(models.ValidGameRoles) {
		limit = len(models.ValidGameRoles)
	}
	n := 1 + f.rng.Intn(limit)
	picked := make(models.GameRoleList, 0, n)
	for _, i := range f.rng.Perm(len(models.ValidGameRoles))[:n] {
		picked = append(picked, models.ValidGameRoles[i])
	}
	return picked
}

// TeamName generates a team name that passes the team name validator.
func (f *Factory) TeamName() string {
	raw := fmt.Sprintf("%s %ss", capitalize(gofakeit.Adjective()), capitalize(gofakeit.Animal()))
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '.', r == '-', r == '_':
			return r
		}
		return -1
	}, raw)
	if len(name) > 40 {
		name = name[:40]
	}
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		name = fmt.Sprintf("Team %d", gofakeit.Number(100, 999))
	}
	return name
}

// CreateUser constructs and persists a sample player.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		DisplayName: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(10, 99)),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Country:     gofakeit.CountryAbr(),
		Role:        models.RolePlayer,
		Rank:        ranks[f.rng.Intn(len(ranks))],
		GameRoles:   f.GameRoles(2),
		Bio:         gofakeit.Sentence(10),
		CreatedAt:   f.pastTime(),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.syntheticID()
	}
	if err := f.create(user, "CreateUser"); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTeam persists a recruiting team owned by owner, seating owner and
// members on the roster.
func (f *Factory) CreateTeam(owner *models.User, members []*models.User, overrides ...func(*models.Team)) (*models.Team, error) {
	low := f.rng.Intn(len(ranks) - 2)
	team := &models.Team{
		Name:         f.TeamName(),
		LogoURL:      fmt.Sprintf("https://picsum.photos/seed/%s/256/256", gofakeit.UUID()),
		OwnerID:      owner.ID,
		MinRank:      ranks[low],
		MaxRank:      ranks[low+2],
		IsRecruiting: true,
		SeekingRoles: f.GameRoles(3),
		CreatedAt:    f.pastTime(),
	}
	for _, override := range overrides {
		override(team)
	}

	if f.opts.DryRun {
		team.ID = f.syntheticID()
		log.Printf("[dry-run] CreateTeam: %q owner=%d members=%d", team.Name, owner.ID, len(members)+1)
		return team, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		for _, u := range append([]*models.User{owner}, members...) {
			member := models.TeamMember{TeamID: team.ID, UserID: u.ID, GameRoles: u.GameRoles, JoinedAt: f.pastTime()}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// CreateFriendship links a and b in both directions.
func (f *Factory) CreateFriendship(a, b *models.User) error {
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateFriendship: %d <-> %d", a.ID, b.ID)
		return nil
	}
	at := f.pastTime()
	rows := []models.Friendship{
		{UserID: a.ID, FriendID: b.ID, CreatedAt: at},
		{UserID: b.ID, FriendID: a.ID, CreatedAt: at},
	}
	return f.db.Create(&rows).Error
}

// CreateFriendRequest persists a pending request from one user to another.
func (f *Factory) CreateFriendRequest(from, to *models.User) (*models.FriendRequest, error) {
	req := &models.FriendRequest{
		FromID:          from.ID,
		ToID:            to.ID,
		Status:          models.FriendRequestPending,
		FromDisplayName: from.DisplayName,
		FromAvatarURL:   from.AvatarURL,
		CreatedAt:       f.pastTime(),
	}
	if f.opts.DryRun {
		req.ID = f.syntheticID()
	}
	if err := f.create(req, "CreateFriendRequest"); err != nil {
		return nil, err
	}
	return req, nil
}

// CreateTeamApplication persists a pending application (or invite, by kind)
// joining user and team.
func (f *Factory) CreateTeamApplication(team *models.Team, user *models.User, kind models.ApplicationType) (*models.TeamApplication, error) {
	app := &models.TeamApplication{
		TeamID:          team.ID,
		TeamName:        team.Name,
		TeamLogoURL:     team.LogoURL,
		TeamOwnerID:     team.OwnerID,
		UserID:          user.ID,
		UserDisplayName: user.DisplayName,
		UserAvatarURL:   user.AvatarURL,
		Type:            kind,
		Status:          models.ApplicationPending,
		Message:         gofakeit.Sentence(8),
		CreatedAt:       f.pastTime(),
	}
	if kind == models.ApplicationTypeInvite {
		owner := team.OwnerID
		app.InvitedByID = &owner
	}
	if f.opts.DryRun {
		app.ID = f.syntheticID()
	}
	if err := f.create(app, "CreateTeamApplication"); err != nil {
		return nil, err
	}
	return app, nil
}

// CreateChat opens the direct chat between a and b with a few messages.
func (f *Factory) CreateChat(a, b *models.User, messages int) (*models.Chat, error) {
	low, high := a.ID, b.ID
	if low > high {
		low, high = high, low
	}
	chat := &models.Chat{ID: models.DirectChatID(a.ID, b.ID), UserAID: low, UserBID: high, CreatedAt: f.pastTime()}

	msgs := make([]models.Message, 0, messages)
	at := chat.CreatedAt
	for i := 0; i < messages; i++ {
		sender := a
		if i%2 == 1 {
			sender = b
		}
		at = at.Add(time.Duration(1+f.rng.Intn(90)) * time.Minute)
		msgs = append(msgs, models.Message{ChatID: chat.ID, SenderID: sender.ID, Content: gofakeit.Sentence(6), CreatedAt: at})
	}
	if n := len(msgs); n > 0 {
		last := msgs[n-1]
		chat.LastMessageText = last.Content
		chat.LastMessageSenderID = &last.SenderID
		chat.LastMessageAt = &last.CreatedAt
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] CreateChat: %s messages=%d", chat.ID, len(msgs))
		return chat, nil
	}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		return tx.Create(&msgs).Error
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
