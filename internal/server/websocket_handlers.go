package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"squadup/internal/cache"
	"squadup/internal/identity"
	"squadup/internal/middleware"
	"squadup/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WSTicketResponse is returned by POST /api/ws/ticket.
type WSTicketResponse struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expires_in"`
}

// localTickets holds tickets when Redis is absent. Such tickets only work on
// the replica that issued them.
var localTickets = struct {
	sync.Mutex
	m map[string]localTicket
}{m: make(map[string]localTicket)}

type localTicket struct {
	actor   models.Actor
	expires time.Time
}

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot set headers on
// the upgrade request, so the socket authenticates with a short-lived,
// single-use ticket minted here from the bearer token.
// @Summary Issue a WebSocket ticket
// @Tags realtime
// @Produce json
// @Success 200 {object} WSTicketResponse
// @Router /ws/ticket [post]
// @Security BearerAuth
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	actor := actorFrom(c)
	ticket := uuid.NewString()

	if s.redis != nil {
		value := fmt.Sprintf("%d:%s", actor.ID, actor.Role)
		if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket), value, cache.WSTicketTTL).Err(); err != nil {
			return models.RespondWithAppError(c, models.NewInternalError(err))
		}
	} else {
		localTickets.Lock()
		now := time.Now()
		for k, t := range localTickets.m {
			if now.After(t.expires) {
				delete(localTickets.m, k)
			}
		}
		localTickets.m[ticket] = localTicket{actor: actor, expires: now.Add(cache.WSTicketTTL)}
		localTickets.Unlock()
	}

	return c.JSON(WSTicketResponse{Ticket: ticket, ExpiresIn: int(cache.WSTicketTTL.Seconds())})
}

// redeemWSTicket consumes ticket and returns the identity it was issued to.
func (s *Server) redeemWSTicket(ctx context.Context, ticket string) (identity.Claims, error) {
	invalid := models.NewUnauthenticatedError("Invalid or expired WebSocket ticket")
	if ticket == "" {
		return identity.Claims{}, invalid
	}

	if s.redis == nil {
		localTickets.Lock()
		t, ok := localTickets.m[ticket]
		delete(localTickets.m, ticket)
		localTickets.Unlock()
		if !ok || time.Now().After(t.expires) {
			return identity.Claims{}, invalid
		}
		return identity.Claims{UserID: t.actor.ID, Role: t.actor.Role}, nil
	}

	value, err := s.redis.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return identity.Claims{}, invalid
	}
	if err != nil {
		return identity.Claims{}, models.NewInternalError(err)
	}

	idPart, rolePart, _ := strings.Cut(value, ":")
	userID, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil || userID == 0 {
		return identity.Claims{}, invalid
	}
	role, err := models.ParseRole(rolePart)
	if err != nil {
		return identity.Claims{}, invalid
	}
	return identity.Claims{UserID: uint(userID), Role: role}, nil
}

// WebsocketHandler returns a websocket handler that registers inbox
// connections with the Hub. userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("inbox socket rejected", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}
