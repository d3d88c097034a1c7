// Package service holds SquadUp business logic on top of the repositories.
package service

import "squadup/internal/models"

// Every privileged operation gets exactly one predicate here. Handlers never
// compare roles directly.

func isTeamManager(actor models.Actor, team *models.Team) bool {
	return team.OwnerID == actor.ID || actor.Role.IsStaff()
}

// CanProcessTeamApplication reports whether actor may accept or reject applications to team.
func CanProcessTeamApplication(actor models.Actor, team *models.Team) bool {
	return isTeamManager(actor, team)
}

// CanViewTeamApplications reports whether actor may read team's pending applications.
func CanViewTeamApplications(actor models.Actor, team *models.Team) bool {
	return isTeamManager(actor, team)
}

// CanInviteToTeam reports whether actor may invite players into team.
func CanInviteToTeam(actor models.Actor, team *models.Team) bool {
	return isTeamManager(actor, team)
}

// CanUpdateMemberGameRoles reports whether actor may edit other members' game roles.
func CanUpdateMemberGameRoles(actor models.Actor, team *models.Team) bool {
	return isTeamManager(actor, team)
}

// CanKickTeamMember reports whether actor may remove other members from team.
func CanKickTeamMember(actor models.Actor, team *models.Team) bool {
	return isTeamManager(actor, team)
}

// CanDeleteUser reports whether actor may hard-delete another account.
func CanDeleteUser(actor models.Actor) bool {
	return actor.Role.IsAdmin()
}

// CanRespondToFriendRequest reports whether actor is the recipient of req.
func CanRespondToFriendRequest(actor models.Actor, req *models.FriendRequest) bool {
	return req.ToID == actor.ID
}

// CanCancelFriendRequest reports whether actor is the sender of req.
func CanCancelFriendRequest(actor models.Actor, req *models.FriendRequest) bool {
	return req.FromID == actor.ID
}

// CanRespondToTeamInvite reports whether actor is the invited user.
func CanRespondToTeamInvite(actor models.Actor, invite *models.TeamApplication) bool {
	return invite.UserID == actor.ID
}
