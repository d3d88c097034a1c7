// Package server contains HTTP and WebSocket handlers for the SquadUp API.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	_ "squadup/docs" // swagger docs
	"squadup/internal/bootstrap"
	"squadup/internal/cache"
	"squadup/internal/config"
	"squadup/internal/featureflags"
	"squadup/internal/identity"
	"squadup/internal/middleware"
	"squadup/internal/models"
	"squadup/internal/notifications"
	"squadup/internal/repository"
	"squadup/internal/service"
	"squadup/internal/triage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	verifier       *identity.Verifier
	featureFlags   *featureflags.Manager

	userRepo       repository.UserRepository
	friendRepo     repository.FriendRepository
	teamRepo       repository.TeamRepository
	appRepo        repository.ApplicationRepository
	chatRepo       repository.ChatRepository
	ticketRepo     repository.TicketRepository
	tournamentRepo repository.TournamentRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub
	hubs     []wireableHub

	friendService       *service.FriendService
	teamService         *service.TeamService
	notificationService *service.NotificationService
	chatService         *service.ChatService
	supportService      *service.SupportService
	adminService        *service.AdminService
	tournamentService   *service.TournamentService

	callables map[string]callable
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; realtime push then stays on this replica and rate
// limits fail open.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}

	var profileCache *cache.Cache
	if redisClient != nil {
		profileCache = cache.New(redisClient)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("squadup-api"),
		verifier:       identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, redisClient),
		featureFlags:   featureflags.Parse(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db, profileCache),
		friendRepo:     repository.NewFriendRepository(db),
		teamRepo:       repository.NewTeamRepository(db),
		appRepo:        repository.NewApplicationRepository(db),
		chatRepo:       repository.NewChatRepository(db),
		ticketRepo:     repository.NewTicketRepository(db),
		tournamentRepo: repository.NewTournamentRepository(db),
		hub:            notifications.NewHub(),
	}
	server.hubs = []wireableHub{server.hub}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	events := notifications.NewPublisher(server.notifier, server.hub, server.featureFlags)

	var ai triage.Classifier
	if cfg.OpenAIAPIKey != "" {
		ai = triage.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}

	server.friendService = service.NewFriendService(server.friendRepo, server.userRepo, events)
	server.teamService = service.NewTeamService(server.teamRepo, server.appRepo, server.userRepo, events)
	server.notificationService = service.NewNotificationService(
		server.friendRepo, server.appRepo, server.teamRepo, server.userRepo, server.teamService)
	server.chatService = service.NewChatService(server.chatRepo, server.userRepo, events)
	server.supportService = service.NewSupportService(
		server.ticketRepo, server.userRepo,
		triage.NewRouter(ai, server.featureFlags),
		service.NewTriageSessionStore(redisClient),
		events,
	)
	server.adminService = service.NewAdminService(server.userRepo, server.revokeTokens)
	server.tournamentService = service.NewTournamentService(server.tournamentRepo)
	server.callables = server.callableRegistry()

	return server, nil
}

// revokeTokens rejects every token issued to userID before now.
func (s *Server) revokeTokens(ctx context.Context, userID uint) error {
	return identity.BumpRoleEpoch(ctx, s.redis, userID)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	// Propagates request id into the user context for logging.
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SquadUp API Metrics",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	protected := api.Group("", s.AuthRequired())

	// Privileged callable functions
	protected.Post("/functions/:name", s.InvokeFunction)

	protected.Get("/notifications", s.GetNotifications)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/:id", s.GetUserProfile)

	// Friend routes. Specific /requests and /status routes before generic /:userId.
	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Get("/requests", s.GetIncomingRequests)
	friends.Get("/requests/sent", s.GetSentRequests)
	friends.Post("/requests/:userId", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Post("/requests/:requestId/accept", s.AcceptFriendRequest)
	friends.Post("/requests/:requestId/reject", s.RejectFriendRequest)
	friends.Delete("/requests/:requestId", s.CancelFriendRequest)
	friends.Get("/status/:userId", s.GetFriendshipStatus)
	friends.Delete("/:userId", s.RemoveFriend)

	// Team routes. Specific routes before generic /:id.
	teams := protected.Group("/teams")
	teams.Get("/", s.GetRecruitingTeams)
	teams.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "create_team"), s.CreateTeam)
	teams.Get("/me", s.GetMyTeams)
	teams.Get("/invites", s.GetMyInvites)
	teams.Post("/invites/:inviteId/accept", s.AcceptTeamInvite)
	teams.Post("/invites/:inviteId/reject", s.RejectTeamInvite)
	teams.Post("/applications/:applicationId/accept", s.AcceptTeamApplication)
	teams.Post("/applications/:applicationId/reject", s.RejectTeamApplication)
	teams.Delete("/applications/:applicationId", s.CancelTeamApplication)
	teams.Get("/:id/applications", s.GetTeamApplications)
	teams.Post("/:id/applications", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "team_application"), s.ApplyToTeam)
	teams.Post("/:id/invites", middleware.RateLimit(
		s.redis, 20, 10*time.Minute, "team_invite"), s.SendTeamInvite)
	teams.Post("/:id/leave", s.LeaveTeam)
	teams.Put("/:id/members/me/roles", s.UpdateMyGameRoles)
	teams.Put("/:id/members/:userId/roles", s.UpdateMemberGameRoles)
	teams.Delete("/:id/members/:userId", s.KickTeamMember)
	teams.Get("/:id", s.GetTeam)

	chats := protected.Group("/chats")
	chats.Get("/", s.GetChats)
	chats.Post("/", s.OpenChat)
	chats.Get("/:chatId/messages", s.GetMessages)
	chats.Post("/:chatId/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendMessage)

	support := protected.Group("/support")
	support.Post("/triage", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "support_triage"), s.StartTriage)
	support.Get("/triage/:sessionId", s.GetTriageSession)
	support.Post("/triage/:sessionId/confirm", s.ConfirmTriage)
	support.Get("/tickets", s.GetMyTickets)

	tournaments := protected.Group("/tournaments")
	tournaments.Get("/", s.GetTournaments)
	tournaments.Post("/", middleware.RateLimit(
		s.redis, 3, time.Hour, "submit_tournament"), s.SubmitTournament)
	tournaments.Get("/:id", s.GetTournament)

	// WebSocket ticket issuance
	protected.Post("/ws/ticket", s.IssueWSTicket)

	// Inbox socket; AuthRequired redeems the ticket for GET /api/ws
	protected.Get("/ws", s.WebsocketHandler())

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/staff", s.GetStaff)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Delete("/users/:userId", s.DeleteUser)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the API still serves, but push and
	// cross-replica rate limits degrade.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects callers without an admin
// role. Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actorFrom(c).Role.IsAdmin() {
			return models.RespondWithAppError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. WebSocket routes accept
// a single-use ticket; every other route takes a bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/ws") && c.Method() == fiber.MethodGet {
			claims, err := s.redeemWSTicket(c.Context(), c.Query("ticket"))
			if err != nil {
				return models.RespondWithAppError(c, err)
			}
			setActor(c, claims.Actor())
			return c.Next()
		}

		tokenString := ""
		if parts := strings.SplitN(c.Get("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = strings.TrimSpace(parts[1])
		}

		claims, err := s.verifier.Verify(c.Context(), tokenString)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		setActor(c, claims.Actor())
		return c.Next()
	}
}

func setActor(c *fiber.Ctx, actor models.Actor) {
	c.Locals("userID", actor.ID)
	c.Locals("role", actor.Role)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(middleware.WithUserID(c.UserContext(), actor.ID))
}

// actorFrom returns the caller set by AuthRequired, or the zero Actor.
func actorFrom(c *fiber.Ctx) models.Actor {
	id, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(models.Role)
	return models.Actor{ID: id, Role: role}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "SquadUp API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					middleware.Logger.Error("failed to start hub wiring", "hub", h.Name(), "error", err)
				}
			}()
		}
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the hub wiring goroutines.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", h.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
