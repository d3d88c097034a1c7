package server

import (
	"encoding/json"
	"fmt"
	"time"

	"squadup/internal/middleware"
	"squadup/internal/models"
	"squadup/internal/observability"
	"squadup/internal/service"
	"squadup/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// callable is a privileged server-side function. data is the raw "data"
// member of the request body.
type callable struct {
	limit  int
	window time.Duration
	run    func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error)
}

type callableResult struct {
	Message string
	Data    any
}

// CallableRequest is the body of POST /api/functions/:name.
type CallableRequest struct {
	Data json.RawMessage `json:"data"`
}

// CallableError is the error member of a failed callable response.
type CallableError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CallableResponse is returned by every callable function.
type CallableResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Error   *CallableError `json:"error,omitempty"`
}

type sendFriendRequestInput struct {
	ToUserID uint `json:"toUserId" validate:"required"`
}

type respondToFriendRequestInput struct {
	RequestID uint  `json:"requestId" validate:"required"`
	Accept    *bool `json:"accept" validate:"required"`
}

type removeFriendInput struct {
	FriendID uint `json:"friendId" validate:"required"`
}

type applyToTeamInput struct {
	TeamID  uint   `json:"teamId" validate:"required"`
	Message string `json:"message" validate:"max=1000"`
}

type sendTeamInviteInput struct {
	TeamID  uint   `json:"teamId" validate:"required"`
	UserID  uint   `json:"userId" validate:"required"`
	Message string `json:"message" validate:"max=1000"`
}

type processTeamApplicationInput struct {
	ApplicationID uint  `json:"applicationId" validate:"required"`
	Approved      *bool `json:"approved" validate:"required"`
}

type updateTeamMemberRolesInput struct {
	TeamID   uint              `json:"teamId" validate:"required"`
	MemberID uint              `json:"memberId" validate:"required"`
	Roles    []models.GameRole `json:"roles" validate:"max=6,dive,gamerole"`
}

type teamMemberInput struct {
	TeamID   uint `json:"teamId" validate:"required"`
	MemberID uint `json:"memberId" validate:"required"`
}

type teamInput struct {
	TeamID uint `json:"teamId" validate:"required"`
}

type deleteUserInput struct {
	UserID uint `json:"userId" validate:"required"`
}

// decodeCallable unmarshals and validates data into dst.
func decodeCallable(data json.RawMessage, dst any) error {
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return models.NewValidationError("Invalid function arguments")
	}
	return validation.Struct(dst)
}

func (s *Server) callableRegistry() map[string]callable {
	registry := map[string]callable{
		"sendFriendRequest": {limit: 5, window: 5 * time.Minute, run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in sendFriendRequestInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			req, err := s.friendService.SendFriendRequest(c.UserContext(), actor, in.ToUserID)
			if err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Friend request sent.", Data: fiber.Map{"requestId": req.ID}}, nil
		}},
		"respondToFriendRequest": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in respondToFriendRequestInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			if _, err := s.friendService.RespondToFriendRequest(c.UserContext(), actor, in.RequestID, *in.Accept); err != nil {
				return callableResult{}, err
			}
			if *in.Accept {
				return callableResult{Message: "Friend request accepted."}, nil
			}
			return callableResult{Message: "Friend request declined."}, nil
		}},
		"removeFriend": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in removeFriendInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			if err := s.friendService.RemoveFriend(c.UserContext(), actor, in.FriendID); err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Friend removed."}, nil
		}},
		"applyToTeam": {limit: 10, window: 10 * time.Minute, run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in applyToTeamInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			app, err := s.teamService.ApplyToTeam(c.UserContext(), actor, in.TeamID, in.Message)
			if err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Application sent.", Data: fiber.Map{"applicationId": app.ID}}, nil
		}},
		"sendTeamInvite": {limit: 20, window: 10 * time.Minute, run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in sendTeamInviteInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			invite, err := s.teamService.SendTeamInvite(c.UserContext(), actor, in.TeamID, in.UserID, in.Message)
			if err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Invite sent.", Data: fiber.Map{"inviteId": invite.ID}}, nil
		}},
		"processTeamApplication": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in processTeamApplicationInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			if _, err := s.teamService.ProcessTeamApplication(c.UserContext(), actor, in.ApplicationID, *in.Approved); err != nil {
				return callableResult{}, err
			}
			if *in.Approved {
				return callableResult{Message: "Application approved."}, nil
			}
			return callableResult{Message: "Application rejected."}, nil
		}},
		"updateTeamMemberRoles": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in updateTeamMemberRolesInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			if err := s.teamService.UpdateMemberGameRoles(c.UserContext(), actor, in.TeamID, in.MemberID, in.Roles); err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Member roles updated."}, nil
		}},
		"kickTeamMember": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in teamMemberInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			if err := s.teamService.KickTeamMember(c.UserContext(), actor, in.TeamID, in.MemberID); err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Member removed from the team."}, nil
		}},
		"getTeamApplicationsInbox": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in teamInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			apps, err := s.teamService.TeamApplicationsInbox(c.UserContext(), actor, in.TeamID)
			if err != nil {
				return callableResult{}, err
			}
			return callableResult{Data: fiber.Map{"applications": apps}}, nil
		}},
		"deleteUser": {run: func(c *fiber.Ctx, actor models.Actor, data json.RawMessage) (callableResult, error) {
			var in deleteUserInput
			if err := decodeCallable(data, &in); err != nil {
				return callableResult{}, err
			}
			if err := s.adminService.DeleteUser(c.UserContext(), actor, in.UserID); err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "User deleted."}, nil
		}},
	}
	// Older clients call the role editor by its repository name.
	registry["updateMemberGameRoles"] = registry["updateTeamMemberRoles"]

	for _, name := range []string{
		service.PlaceholderSetUserRole,
		service.PlaceholderBanUser,
		service.PlaceholderApproveTournament,
		service.PlaceholderDeleteTeam,
		service.PlaceholderDeleteTournament,
		service.PlaceholderDeleteTeamApplication,
	} {
		registry[name] = callable{run: func(c *fiber.Ctx, actor models.Actor, _ json.RawMessage) (callableResult, error) {
			if err := s.adminService.Placeholder(c.UserContext(), actor, name); err != nil {
				return callableResult{}, err
			}
			return callableResult{Message: "Request accepted."}, nil
		}}
	}
	return registry
}

// InvokeFunction handles POST /api/functions/:name
// @Summary Invoke a privileged function
// @Tags functions
// @Accept json
// @Produce json
// @Param name path string true "Function name"
// @Param request body CallableRequest true "Function arguments"
// @Success 200 {object} CallableResponse
// @Failure 400 {object} CallableResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /functions/{name} [post]
// @Security BearerAuth
func (s *Server) InvokeFunction(c *fiber.Ctx) error {
	name := c.Params("name")
	fn, ok := s.callables[name]
	if !ok {
		return s.callableFailure(c, name, models.NewNotFoundError("Function", name))
	}

	var req CallableRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return s.callableFailure(c, name, models.NewValidationError("Invalid request body"))
		}
	}

	actor := actorFrom(c)
	span, ctx := observability.StartCallable(c.UserContext(), name, actor.ID)
	c.SetUserContext(ctx)

	if fn.limit > 0 {
		allowed, err := middleware.CheckRateLimit(c.UserContext(), s.redis, "fn_"+name, fmt.Sprintf("user:%d", actor.ID), fn.limit, fn.window)
		switch {
		case err != nil:
			// Fail open, like the route limiter.
			middleware.Logger.WarnContext(c.UserContext(), "callable rate limit check failed", "function", name, "error", err)
		case !allowed:
			observability.CallableInvocations.WithLabelValues(name, "resource-exhausted").Inc()
			span.Finish("resource-exhausted", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(CallableResponse{
				Error: &CallableError{Code: "resource-exhausted", Message: "Too many requests, please try again later."},
			})
		}
	}

	result, err := fn.run(c, actor, req.Data)
	if err != nil {
		span.Finish(models.WireCode(err), err)
		return s.callableFailure(c, name, err)
	}

	span.Finish("ok", nil)
	observability.CallableInvocations.WithLabelValues(name, "ok").Inc()
	return c.JSON(CallableResponse{
		Success: true,
		Message: result.Message,
		Data:    result.Data,
	})
}

// callableFailure writes err as a callable response with a localized message.
func (s *Server) callableFailure(c *fiber.Ctx, name string, err error) error {
	code := models.ErrorCode(err)
	wire := models.WireCode(err)
	observability.CallableInvocations.WithLabelValues(name, wire).Inc()

	if code == models.CodeInternal || code == models.CodeIndexRequired {
		middleware.Logger.ErrorContext(c.UserContext(), "callable function failed", "function", name, "error", err)
	}

	return c.Status(models.HTTPStatus(err)).JSON(CallableResponse{
		Error: &CallableError{
			Code:    wire,
			Message: models.UserMessage(code, c.Get(fiber.HeaderAcceptLanguage)),
		},
	})
}
