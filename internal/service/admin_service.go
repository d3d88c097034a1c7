package service

import (
	"context"

	"squadup/internal/middleware"
	"squadup/internal/models"
	"squadup/internal/repository"
)

// Privileged functions that are accepted and acknowledged but not yet backed
// by any state change.
const (
	PlaceholderSetUserRole           = "setUserRole"
	PlaceholderBanUser               = "banUser"
	PlaceholderApproveTournament     = "approveTournament"
	PlaceholderDeleteTeam            = "deleteTeam"
	PlaceholderDeleteTournament      = "deleteTournament"
	PlaceholderDeleteTeamApplication = "deleteTeamApplication"
)

// AdminService holds platform-level privileged operations.
type AdminService struct {
	userRepo     repository.UserRepository
	revokeTokens func(ctx context.Context, userID uint) error
}

// NewAdminService returns a new AdminService. revokeTokens invalidates a
// user's outstanding identity tokens and may be nil.
func NewAdminService(userRepo repository.UserRepository, revokeTokens func(ctx context.Context, userID uint) error) *AdminService {
	return &AdminService{userRepo: userRepo, revokeTokens: revokeTokens}
}

// DeleteUser hard-deletes targetID and every relationship that references
// them, then revokes their tokens.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Actor, targetID uint) (err error) {
	defer func() { recordMutation("delete_user", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if !CanDeleteUser(actor) {
		return models.NewForbiddenError("Only admins can delete users")
	}
	if targetID == 0 {
		return models.NewValidationError("A target user is required")
	}
	if targetID == actor.ID {
		return models.NewValidationError("You cannot delete your own account here")
	}

	if err := s.userRepo.DeleteCascade(ctx, targetID); err != nil {
		return err
	}

	if s.revokeTokens != nil {
		if err := s.revokeTokens(ctx, targetID); err != nil {
			middleware.Logger.WarnContext(ctx, "deleted user but failed to revoke tokens",
				"target_id", targetID, "error", err)
		}
	}
	middleware.Logger.InfoContext(ctx, "user deleted", "actor_id", actor.ID, "target_id", targetID)
	return nil
}

// ListStaff returns moderators, admins and founders.
func (s *AdminService) ListStaff(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRoles(ctx, models.RoleModerator, models.RoleAdmin, models.RoleFounder)
}

// Placeholder acknowledges a privileged function that has no behavior yet.
// It only requires an authenticated caller.
func (s *AdminService) Placeholder(ctx context.Context, actor models.Actor, name string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "placeholder function invoked", "function", name, "actor_id", actor.ID)
	return nil
}
