// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "thoughtforum/docs" // swagger docs
	"thoughtforum/internal/auth"
	"thoughtforum/internal/bootstrap"
	"thoughtforum/internal/config"
	"thoughtforum/internal/database"
	"thoughtforum/internal/middleware"
	"thoughtforum/internal/models"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens  *auth.Manager
	revoked auth.RevocationStore
	hub     *notifications.Hub
	router  *notifications.Router

	authService     *service.AuthService
	questionService *service.QuestionService
	answerService   *service.AnswerService
	userService     *service.UserService
	categoryService *service.CategoryService

	wsHandlers map[notifications.EventKind]wsHandler
}

// NewServer prepares the database, schema and Redis and creates a server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Redis is optional; a nil client disables fan-out, revocation and caching.
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedCategories: true})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and applies
// the schema.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires config and database")
	}

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("thoughtforum-api"),
		tokens:         auth.NewManager(cfg),
	}
	if redisClient != nil {
		s.revoked = auth.NewRedisRevocationStore(redisClient)
	}

	s.hub = notifications.NewHub(notifications.NewRegistry())
	s.router = notifications.NewRouter(s.hub, notifications.NewNotifier(redisClient))

	s.authService = service.NewAuthService(userRepo, refreshRepo, s.tokens, s.revoked)
	s.questionService = service.NewQuestionService(questionRepo, categoryRepo, userRepo, s.router)
	s.answerService = service.NewAnswerService(answerRepo, questionRepo, userRepo, s.router)
	s.userService = service.NewUserService(userRepo, s.router)
	s.categoryService = service.NewCategoryService(categoryRepo)
	s.wsHandlers = s.realtimeHandlers()

	return s, nil
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ThoughtForum API",
		ErrorHandler: ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// ErrorHandler maps handler errors to a JSON {message} body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) && (!errors.As(err, &appErr) || appErr.HTTPStatus() >= fiber.StatusInternalServerError) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	limit := s.config.RateLimitPerMinute
	if limit <= 0 {
		limit = 100
	}
	app.Use(limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if !s.config.IsProduction() {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	api := app.Group("/api")
	requireAuth := middleware.VerifyAccessToken(s.tokens, s.revoked)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	authRoutes.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authRoutes.Post("/refresh", s.Refresh)
	authRoutes.Post("/logout", requireAuth, s.Logout)

	// Specific question routes before the generic /:questionId
	questions := api.Group("/questions")
	questions.Get("/", s.GetQuestions)
	questions.Get("/hot-questions", s.GetHotQuestions)
	questions.Get("/top-questions", s.GetTopQuestions)
	questions.Get("/following-questions", requireAuth, s.GetFollowingQuestions)
	questions.Get("/likes/:questionId", s.GetQuestionLikes)
	questions.Get("/related-questions/:categoryId", s.GetRelatedQuestions)
	questions.Get("/category/:categoryId", s.GetCategoryQuestions)
	questions.Get("/:questionId", s.GetQuestion)
	questions.Post("/", requireAuth, middleware.RateLimit(s.redis, 10, time.Minute, "create_question"), s.CreateQuestion)
	questions.Post("/like/:questionId", requireAuth, s.LikeQuestion)
	questions.Put("/:questionId", requireAuth, s.UpdateQuestion)
	questions.Delete("/:questionId", requireAuth, s.DeleteQuestion)

	answers := api.Group("/answers")
	answers.Get("/", s.GetAnswersCount)
	answers.Get("/likes/:answerId", s.GetAnswerLikes)
	answers.Get("/:questionId", s.GetAnswers)
	answers.Post("/", requireAuth, middleware.RateLimit(s.redis, 20, time.Minute, "create_answer"), s.CreateAnswer)
	answers.Post("/:answerId", requireAuth, s.LikeAnswer)
	answers.Put("/:answerId", requireAuth, s.UpdateAnswer)
	answers.Delete("/:answerId", requireAuth, s.DeleteAnswer)

	users := api.Group("/users")
	users.Get("/", requireAuth, s.GetMyProfile)
	users.Put("/", requireAuth, s.UpdateMyProfile)
	users.Get("/followers", requireAuth, s.GetMyFollowers)
	users.Get("/top-members", s.GetTopMembers)
	users.Get("/followers/:userId", s.GetFollowers)
	users.Get("/following/:userId", s.GetFollowing)
	users.Get("/:userId", s.GetUserProfile)
	users.Post("/:userId", requireAuth, s.ToggleFollow)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Get("/:categoryId", s.GetCategory)
	categories.Post("/", requireAuth, s.CreateCategory)

	api.Get("/ws", s.WebsocketUpgrade, s.WebsocketHandler())

	// Anything left is unmatched.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Message: "Not found"})
	})
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
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the server runs single-process.
	redisStatus := "disabled"
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
			"database":    dbStatus,
			"redis":       redisStatus,
			"connections": s.hub.Len(),
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.router.Start(s.shutdownCtx); err != nil {
		middleware.Logger.Warn("notification fan-out unavailable, delivering locally only",
			slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close WebSocket connections gracefully
	if err := s.router.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down notifications", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
