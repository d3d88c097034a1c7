package server

import (
	"squadup/internal/models"
	"squadup/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TeamMessageRequest carries the optional note on an application or invite.
type TeamMessageRequest struct {
	UserID  uint   `json:"user_id"`
	Message string `json:"message"`
}

// GameRolesRequest is the body of the member role endpoints.
type GameRolesRequest struct {
	Roles []models.GameRole `json:"roles"`
}

// GetRecruitingTeams handles GET /api/teams
func (s *Server) GetRecruitingTeams(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	teams, err := s.teamService.ListRecruiting(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(teams)
}

// CreateTeam handles POST /api/teams
// @Summary Create a team
// @Tags teams
// @Accept json
// @Produce json
// @Param request body service.CreateTeamInput true "Team details"
// @Success 201 {object} models.Team
// @Failure 400 {object} models.ErrorResponse
// @Router /teams [post]
// @Security BearerAuth
func (s *Server) CreateTeam(c *fiber.Ctx) error {
	var in service.CreateTeamInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	team, err := s.teamService.CreateTeam(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

// GetMyTeams handles GET /api/teams/me
func (s *Server) GetMyTeams(c *fiber.Ctx) error {
	teams, err := s.teamService.ListMyTeams(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(teams)
}

// GetMyInvites handles GET /api/teams/invites
func (s *Server) GetMyInvites(c *fiber.Ctx) error {
	invites, err := s.teamService.ListMyInvites(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(invites)
}

// GetTeam handles GET /api/teams/:id
func (s *Server) GetTeam(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	team, err := s.teamService.GetTeam(c.UserContext(), teamID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(team)
}

// ApplyToTeam handles POST /api/teams/:id/applications
func (s *Server) ApplyToTeam(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req TeamMessageRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	app, err := s.teamService.ApplyToTeam(c.UserContext(), actorFrom(c), teamID, req.Message)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetTeamApplications handles GET /api/teams/:id/applications
func (s *Server) GetTeamApplications(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	apps, err := s.teamService.TeamApplicationsInbox(c.UserContext(), actorFrom(c), teamID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(apps)
}

// SendTeamInvite handles POST /api/teams/:id/invites
func (s *Server) SendTeamInvite(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req TeamMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	invite, err := s.teamService.SendTeamInvite(c.UserContext(), actorFrom(c), teamID, req.UserID, req.Message)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

// AcceptTeamApplication handles POST /api/teams/applications/:applicationId/accept
func (s *Server) AcceptTeamApplication(c *fiber.Ctx) error {
	return s.processTeamApplication(c, true)
}

// RejectTeamApplication handles POST /api/teams/applications/:applicationId/reject
func (s *Server) RejectTeamApplication(c *fiber.Ctx) error {
	return s.processTeamApplication(c, false)
}

func (s *Server) processTeamApplication(c *fiber.Ctx, approved bool) error {
	appID, err := s.parseID(c, "applicationId")
	if err != nil {
		return nil
	}
	app, err := s.teamService.ProcessTeamApplication(c.UserContext(), actorFrom(c), appID, approved)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(app)
}

// AcceptTeamInvite handles POST /api/teams/invites/:inviteId/accept
func (s *Server) AcceptTeamInvite(c *fiber.Ctx) error {
	return s.respondToTeamInvite(c, true)
}

// RejectTeamInvite handles POST /api/teams/invites/:inviteId/reject
func (s *Server) RejectTeamInvite(c *fiber.Ctx) error {
	return s.respondToTeamInvite(c, false)
}

func (s *Server) respondToTeamInvite(c *fiber.Ctx, accept bool) error {
	inviteID, err := s.parseID(c, "inviteId")
	if err != nil {
		return nil
	}
	invite, err := s.teamService.RespondToTeamInvite(c.UserContext(), actorFrom(c), inviteID, accept)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(invite)
}

// CancelTeamApplication handles DELETE /api/teams/applications/:applicationId
func (s *Server) CancelTeamApplication(c *fiber.Ctx) error {
	appID, err := s.parseID(c, "applicationId")
	if err != nil {
		return nil
	}
	if _, err := s.teamService.CancelTeamApplication(c.UserContext(), actorFrom(c), appID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LeaveTeam handles POST /api/teams/:id/leave
func (s *Server) LeaveTeam(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.teamService.LeaveTeam(c.UserContext(), actorFrom(c), teamID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateMyGameRoles handles PUT /api/teams/:id/members/me/roles
func (s *Server) UpdateMyGameRoles(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req GameRolesRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.teamService.UpdateMyGameRoles(c.UserContext(), actorFrom(c), teamID, req.Roles); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateMemberGameRoles handles PUT /api/teams/:id/members/:userId/roles
func (s *Server) UpdateMemberGameRoles(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	memberID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	var req GameRolesRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.teamService.UpdateMemberGameRoles(c.UserContext(), actorFrom(c), teamID, memberID, req.Roles); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// KickTeamMember handles DELETE /api/teams/:id/members/:userId
func (s *Server) KickTeamMember(c *fiber.Ctx) error {
	teamID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	memberID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.teamService.KickTeamMember(c.UserContext(), actorFrom(c), teamID, memberID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
