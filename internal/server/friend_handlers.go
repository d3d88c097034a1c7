package server

import (
	"squadup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.ListFriends(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(friends)
}

// GetIncomingRequests handles GET /api/friends/requests
func (s *Server) GetIncomingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.ListIncomingRequests(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.ListSentRequests(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(requests)
}

// SendFriendRequest handles POST /api/friends/requests/:userId
// @Summary Send a friend request
// @Tags friends
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 201 {object} models.FriendRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /friends/requests/{userId} [post]
// @Security BearerAuth
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	req, err := s.friendService.SendFriendRequest(c.UserContext(), actorFrom(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	return s.respondToFriendRequest(c, true)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	return s.respondToFriendRequest(c, false)
}

func (s *Server) respondToFriendRequest(c *fiber.Ctx, accept bool) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	req, err := s.friendService.RespondToFriendRequest(c.UserContext(), actorFrom(c), requestID, accept)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(req)
}

// CancelFriendRequest handles DELETE /api/friends/requests/:requestId
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.CancelFriendRequest(c.UserContext(), actorFrom(c), requestID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	state, req, err := s.friendService.FriendshipStatus(c.UserContext(), actorFrom(c), otherID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp := fiber.Map{"status": state}
	if req != nil {
		resp["request_id"] = req.ID
	}
	return c.JSON(resp)
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	friendID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.RemoveFriend(c.UserContext(), actorFrom(c), friendID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
