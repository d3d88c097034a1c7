package server

import (
	"squadup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetStaff handles GET /api/admin/staff
func (s *Server) GetStaff(c *fiber.Ctx) error {
	staff, err := s.adminService.ListStaff(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(staff)
}

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags":   s.featureFlags.Names(),
		"enabled": s.featureFlags.Snapshot(actorFrom(c).ID),
	})
}

// DeleteUser handles DELETE /api/admin/users/:userId
// @Summary Delete a user and their relationships
// @Tags admin
// @Param userId path int true "User ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId} [delete]
// @Security BearerAuth
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.adminService.DeleteUser(c.UserContext(), actorFrom(c), userID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
