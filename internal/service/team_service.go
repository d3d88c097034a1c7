package service

import (
	"context"
	"strings"

	"squadup/internal/models"
	"squadup/internal/notifications"
	"squadup/internal/repository"
	"squadup/internal/validation"
)

// TeamService manages rosters, applications and invites.
type TeamService struct {
	teamRepo repository.TeamRepository
	appRepo  repository.ApplicationRepository
	userRepo repository.UserRepository
	events   EventPublisher
}

// NewTeamService returns a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, appRepo repository.ApplicationRepository, userRepo repository.UserRepository, events EventPublisher) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		appRepo:  appRepo,
		userRepo: userRepo,
		events:   publisherOrNoop(events),
	}
}

// CreateTeamInput is the payload for creating a team.
type CreateTeamInput struct {
	Name         string            `json:"name" validate:"required,teamname"`
	LogoURL      string            `json:"logo_url" validate:"omitempty,url,max=512"`
	MinRank      string            `json:"min_rank" validate:"max=40"`
	MaxRank      string            `json:"max_rank" validate:"max=40"`
	SeekingRoles []models.GameRole `json:"seeking_roles" validate:"max=6,dive,gamerole"`
	OwnerRoles   []models.GameRole `json:"owner_roles" validate:"max=6,dive,gamerole"`
}

// CreateTeam creates a recruiting team owned by actor with actor seated as
// its first member.
func (s *TeamService) CreateTeam(ctx context.Context, actor models.Actor, in CreateTeamInput) (team *models.Team, err error) {
	defer func() { recordMutation("create_team", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, actor.ID); err != nil {
		return nil, err
	}

	team = &models.Team{
		Name:         in.Name,
		LogoURL:      in.LogoURL,
		OwnerID:      actor.ID,
		MinRank:      in.MinRank,
		MaxRank:      in.MaxRank,
		IsRecruiting: true,
		SeekingRoles: dedupeRoles(in.SeekingRoles),
	}
	if err := s.teamRepo.Create(ctx, team, dedupeRoles(in.OwnerRoles)); err != nil {
		return nil, err
	}
	return team, nil
}

// GetTeam returns a team with its roster.
func (s *TeamService) GetTeam(ctx context.Context, teamID uint) (*models.Team, error) {
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return nil, err
	}
	return s.teamRepo.GetByID(ctx, teamID)
}

// ListMyTeams returns the teams actor plays on.
func (s *TeamService) ListMyTeams(ctx context.Context, actor models.Actor) ([]models.Team, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.teamRepo.ListByMember(ctx, actor.ID)
}

// ListRecruiting pages through teams that accept applications.
func (s *TeamService) ListRecruiting(ctx context.Context, limit, offset int) ([]models.Team, error) {
	return s.teamRepo.ListRecruiting(ctx, limit, offset)
}

// ApplyToTeam files a pending application from actor to teamID. Capacity is
// not checked here; it is enforced when the application is accepted.
func (s *TeamService) ApplyToTeam(ctx context.Context, actor models.Actor, teamID uint, message string) (app *models.TeamApplication, err error) {
	defer func() { recordMutation("apply_to_team", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return nil, err
	}
	if len(message) > 1000 {
		return nil, models.NewValidationError("message must be at most 1000 characters")
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsRecruiting {
		return nil, models.NewFailedPreconditionError("This team is not recruiting")
	}
	applicant, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	app = newApplication(team, applicant, models.ApplicationTypeApplication)
	app.Message = strings.TrimSpace(message)
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.events.PublishUser(ctx, team.OwnerID, notifications.EventTeamApplicationCreated, models.NewApplicationNotification(app))
	return app, nil
}

// SendTeamInvite invites userID into teamID on behalf of a team manager.
func (s *TeamService) SendTeamInvite(ctx context.Context, actor models.Actor, teamID, userID uint, message string) (invite *models.TeamApplication, err error) {
	defer func() { recordMutation("send_team_invite", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("user_id", userID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !CanInviteToTeam(actor, team) {
		return nil, models.NewForbiddenError("Only the team owner or staff can invite players")
	}
	invitee, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	invite = newApplication(team, invitee, models.ApplicationTypeInvite)
	inviter := actor.ID
	invite.InvitedByID = &inviter
	invite.Message = strings.TrimSpace(message)
	if err := s.appRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	s.events.PublishUser(ctx, userID, notifications.EventTeamInviteReceived, models.NewInviteNotification(invite))
	return invite, nil
}

// ProcessTeamApplication accepts or rejects a pending application. Acceptance
// re-checks roster capacity at decision time.
func (s *TeamService) ProcessTeamApplication(ctx context.Context, actor models.Actor, applicationID uint, approved bool) (app *models.TeamApplication, err error) {
	defer func() { recordMutation("process_team_application", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("application_id", applicationID); err != nil {
		return nil, err
	}

	existing, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if existing.Type != models.ApplicationTypeApplication {
		return nil, models.NewValidationError("Invites are answered by the invited player")
	}
	team, err := s.teamRepo.GetByID(ctx, existing.TeamID)
	if err != nil {
		return nil, err
	}
	if !CanProcessTeamApplication(actor, team) {
		return nil, models.NewForbiddenError("Only the team owner or staff can process applications")
	}

	return s.decide(ctx, team, applicationID, approved)
}

// RespondToTeamInvite lets the invited user accept or decline an invite.
func (s *TeamService) RespondToTeamInvite(ctx context.Context, actor models.Actor, inviteID uint, accept bool) (invite *models.TeamApplication, err error) {
	defer func() { recordMutation("respond_team_invite", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("invite_id", inviteID); err != nil {
		return nil, err
	}

	existing, err := s.appRepo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if existing.Type != models.ApplicationTypeInvite {
		return nil, models.NewValidationError("Applications are processed by the team owner")
	}
	if !CanRespondToTeamInvite(actor, existing) {
		return nil, models.NewForbiddenError("You can only respond to your own invites")
	}
	team, err := s.teamRepo.GetByID(ctx, existing.TeamID)
	if err != nil {
		return nil, err
	}

	return s.decide(ctx, team, inviteID, accept)
}

func (s *TeamService) decide(ctx context.Context, team *models.Team, id uint, accept bool) (*models.TeamApplication, error) {
	if !accept {
		app, err := s.appRepo.Reject(ctx, id)
		if err != nil {
			return nil, err
		}
		s.notifyClosed(ctx, app)
		return app, nil
	}

	app, err := s.appRepo.Accept(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyClosed(ctx, app)

	joined := map[string]any{"team_id": team.ID, "user_id": app.UserID, "display_name": app.UserDisplayName}
	for _, memberID := range team.MemberIDs() {
		s.events.PublishUser(ctx, memberID, notifications.EventTeamMemberJoined, joined)
	}
	return app, nil
}

// notifyClosed tells the side that did not decide how the record ended.
func (s *TeamService) notifyClosed(ctx context.Context, app *models.TeamApplication) {
	target := app.UserID
	if app.Type == models.ApplicationTypeInvite {
		target = app.TeamOwnerID
		if app.InvitedByID != nil {
			target = *app.InvitedByID
		}
	}
	s.events.PublishUser(ctx, target, notifications.EventTeamApplicationClosed, map[string]any{
		"application_id": app.ID,
		"team_id":        app.TeamID,
		"type":           app.Type,
		"status":         app.Status,
	})
}

// CancelTeamApplication withdraws a pending record. Applicants withdraw their
// own applications; team managers withdraw invites.
func (s *TeamService) CancelTeamApplication(ctx context.Context, actor models.Actor, applicationID uint) (app *models.TeamApplication, err error) {
	defer func() { recordMutation("cancel_team_application", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	existing, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	switch existing.Type {
	case models.ApplicationTypeApplication:
		if existing.UserID != actor.ID {
			return nil, models.NewForbiddenError("You can only withdraw your own applications")
		}
	case models.ApplicationTypeInvite:
		team, err := s.teamRepo.GetByID(ctx, existing.TeamID)
		if err != nil {
			return nil, err
		}
		if !CanInviteToTeam(actor, team) {
			return nil, models.NewForbiddenError("Only the team owner or staff can withdraw invites")
		}
	}

	return s.appRepo.DeletePending(ctx, applicationID)
}

// LeaveTeam removes actor from the roster. The owner cannot leave.
func (s *TeamService) LeaveTeam(ctx context.Context, actor models.Actor, teamID uint) (err error) {
	defer func() { recordMutation("leave_team", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID == actor.ID {
		return models.NewFailedPreconditionError("The team owner cannot leave the team")
	}
	if err := s.teamRepo.RemoveMember(ctx, teamID, actor.ID); err != nil {
		return err
	}
	s.notifyRoster(ctx, team, notifications.EventTeamMemberRemoved, actor.ID)
	return nil
}

// UpdateMemberGameRoles lets a team manager edit another member's game roles.
// Managers edit their own roles through UpdateMyGameRoles, and the owner's
// roles are never edited by someone else.
func (s *TeamService) UpdateMemberGameRoles(ctx context.Context, actor models.Actor, teamID, memberID uint, roles []models.GameRole) (err error) {
	defer func() { recordMutation("update_member_game_roles", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return err
	}
	if err := validation.ValidateID("member_id", memberID); err != nil {
		return err
	}
	clean, err := validateGameRoles(roles)
	if err != nil {
		return err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !CanUpdateMemberGameRoles(actor, team) {
		return models.NewForbiddenError("Only the team owner or staff can edit member roles")
	}
	if memberID == actor.ID {
		return models.NewValidationError("Use your own profile to edit your roles")
	}
	if memberID == team.OwnerID {
		return models.NewForbiddenError("The team owner's roles can only be edited by the owner")
	}

	if err := s.teamRepo.UpdateMemberGameRoles(ctx, teamID, memberID, clean); err != nil {
		return err
	}
	s.events.PublishUser(ctx, memberID, notifications.EventTeamMemberRolesUpdated, map[string]any{
		"team_id": teamID, "user_id": memberID, "game_roles": clean,
	})
	return nil
}

// UpdateMyGameRoles lets a member edit their own game roles on teamID.
func (s *TeamService) UpdateMyGameRoles(ctx context.Context, actor models.Actor, teamID uint, roles []models.GameRole) (err error) {
	defer func() { recordMutation("update_my_game_roles", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return err
	}
	clean, err := validateGameRoles(roles)
	if err != nil {
		return err
	}
	return s.teamRepo.UpdateMemberGameRoles(ctx, teamID, actor.ID, clean)
}

// KickTeamMember removes memberID from the roster on behalf of a team manager.
func (s *TeamService) KickTeamMember(ctx context.Context, actor models.Actor, teamID, memberID uint) (err error) {
	defer func() { recordMutation("kick_team_member", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return err
	}
	if err := validation.ValidateID("member_id", memberID); err != nil {
		return err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !CanKickTeamMember(actor, team) {
		return models.NewForbiddenError("Only the team owner or staff can remove members")
	}
	if memberID == actor.ID {
		return models.NewValidationError("Use leave team to remove yourself")
	}
	if memberID == team.OwnerID {
		return models.NewForbiddenError("The team owner cannot be removed")
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, memberID); err != nil {
		return err
	}
	s.notifyRoster(ctx, team, notifications.EventTeamMemberRemoved, memberID)
	return nil
}

// TeamApplicationsInbox returns the pending applications to teamID. Only the
// owner and staff may read it.
func (s *TeamService) TeamApplicationsInbox(ctx context.Context, actor models.Actor, teamID uint) ([]models.TeamApplication, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("team_id", teamID); err != nil {
		return nil, err
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !CanViewTeamApplications(actor, team) {
		return nil, models.NewForbiddenError("Only the team owner or staff can view applications")
	}
	return s.appRepo.ListPendingByTeam(ctx, teamID, models.ApplicationTypeApplication)
}

// ListMyInvites returns the pending invites addressed to actor.
func (s *TeamService) ListMyInvites(ctx context.Context, actor models.Actor) ([]models.TeamApplication, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.appRepo.ListPendingForUser(ctx, actor.ID, models.ApplicationTypeInvite)
}

// notifyRoster tells the removed user and the remaining roster about a departure.
func (s *TeamService) notifyRoster(ctx context.Context, team *models.Team, eventType string, userID uint) {
	payload := map[string]any{"team_id": team.ID, "user_id": userID}
	for _, memberID := range team.MemberIDs() {
		s.events.PublishUser(ctx, memberID, eventType, payload)
	}
}

func newApplication(team *models.Team, user *models.User, kind models.ApplicationType) *models.TeamApplication {
	return &models.TeamApplication{
		TeamID:          team.ID,
		TeamName:        team.Name,
		TeamLogoURL:     team.LogoURL,
		TeamOwnerID:     team.OwnerID,
		UserID:          user.ID,
		UserDisplayName: user.DisplayName,
		UserAvatarURL:   user.AvatarURL,
		Type:            kind,
	}
}

func validateGameRoles(roles []models.GameRole) (models.GameRoleList, error) {
	if len(roles) > len(models.ValidGameRoles) {
		return nil, models.NewValidationError("Too many game roles")
	}
	for _, r := range roles {
		if !models.GameRoleList(models.ValidGameRoles).Contains(r) {
			return nil, models.NewValidationError("Unknown game role: " + string(r))
		}
	}
	return dedupeRoles(roles), nil
}

func dedupeRoles(roles []models.GameRole) models.GameRoleList {
	out := make(models.GameRoleList, 0, len(roles))
	for _, r := range roles {
		if !out.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}
