package server

import (
	"squadup/internal/models"
	"squadup/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StartTriageRequest is the body of POST /api/support/triage.
type StartTriageRequest struct {
	Description string `json:"description"`
}

// StartTriage handles POST /api/support/triage
// @Summary Classify a support request
// @Description Approved descriptions open a session in state confirming. Rejected ones return state initial with a message.
// @Tags support
// @Accept json
// @Produce json
// @Param request body StartTriageRequest true "Problem description"
// @Success 200 {object} service.TriageSession
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /support/triage [post]
// @Security BearerAuth
func (s *Server) StartTriage(c *fiber.Ctx) error {
	var req StartTriageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	sess, err := s.supportService.StartTriage(c.UserContext(), actorFrom(c), req.Description)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(sess)
}

// GetTriageSession handles GET /api/support/triage/:sessionId
func (s *Server) GetTriageSession(c *fiber.Ctx) error {
	sess, err := s.supportService.GetTriageSession(c.UserContext(), actorFrom(c), c.Params("sessionId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(sess)
}

// ConfirmTriage handles POST /api/support/triage/:sessionId/confirm
func (s *Server) ConfirmTriage(c *fiber.Ctx) error {
	var in service.ConfirmTriageInput
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return nil
		}
	}
	ticket, err := s.supportService.ConfirmTriage(c.UserContext(), actorFrom(c), c.Params("sessionId"), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// GetMyTickets handles GET /api/support/tickets
func (s *Server) GetMyTickets(c *fiber.Ctx) error {
	tickets, err := s.supportService.ListMyTickets(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tickets)
}
