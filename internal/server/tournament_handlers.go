package server

import (
	"squadup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SubmitTournamentRequest is the body of POST /api/tournaments.
type SubmitTournamentRequest struct {
	Name string `json:"name"`
}

// GetTournaments handles GET /api/tournaments?status=
func (s *Server) GetTournaments(c *fiber.Ctx) error {
	status := models.TournamentStatus(c.Query("status", string(models.TournamentApproved)))
	if status != models.TournamentApproved && status != models.TournamentPendingApproval {
		return models.RespondWithAppError(c, models.NewValidationError("Unknown tournament status"))
	}
	tournaments, err := s.tournamentService.List(c.UserContext(), status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tournaments)
}

// SubmitTournament handles POST /api/tournaments
func (s *Server) SubmitTournament(c *fiber.Ctx) error {
	var req SubmitTournamentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	t, err := s.tournamentService.Submit(c.UserContext(), actorFrom(c), req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// GetTournament handles GET /api/tournaments/:id
func (s *Server) GetTournament(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	t, err := s.tournamentService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(t)
}
