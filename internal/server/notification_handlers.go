package server

import (
	"squadup/internal/middleware"
	"squadup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// NotificationsResponse is the body of GET /api/notifications.
type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

// GetNotifications handles GET /api/notifications
// @Summary Pending notifications
// @Description Friend requests, team invites and applications to owned teams, newest first.
// @Tags notifications
// @Produce json
// @Success 200 {object} NotificationsResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /notifications [get]
// @Security BearerAuth
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	items, err := s.notificationService.PendingNotifications(c.UserContext(), actorFrom(c))
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "pending notifications failed",
			"code", models.ErrorCode(err), "error", err)
		return models.RespondWithAppError(c, err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return c.JSON(NotificationsResponse{Notifications: items})
}
