// Package server contains the HTTP handlers and wiring for the blog's pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/events"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// bodyLimit leaves room for a maximum-size image plus the other form fields.
const bodyLimit = storage.MaxImageBytes + 1<<20

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          storage.ImageStore
	mediaDir       string
	publisher      events.Publisher
	rateLimiter    *middleware.RateLimiter
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, which disables the listing cache, rate limiting and
// token revocation.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, mediaDir, err := newImageStore(cfg)
	if err != nil {
		return nil, err
	}
	publisher, err := newPublisher(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	ttl := cfg.IndexCacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultListingTTL
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		store:          store,
		mediaDir:       mediaDir,
		publisher:      publisher,
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
	}
	server.postService = service.NewPostService(service.PostServiceDeps{
		Posts:     postRepo,
		Groups:    groupRepo,
		Users:     userRepo,
		Comments:  commentRepo,
		Store:     store,
		Listings:  cache.NewRedisListingCache(redisClient, cache.ListingPrefix, ttl),
		Publisher: publisher,
	})
	server.commentService = service.NewCommentService(commentRepo, postRepo, publisher)
	server.followService = service.NewFollowService(followRepo, userRepo, postRepo, store, publisher)
	server.userService = service.NewUserService(userRepo)

	return server, nil
}

// newImageStore builds the configured image backend. mediaDir is set only for
// the local backend, whose files the server serves itself.
func newImageStore(cfg *config.Config) (storage.ImageStore, string, error) {
	switch cfg.StorageBackend {
	case "minio":
		ms, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			URLTTL:    cfg.StorageURLTTL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("minio storage: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, "", fmt.Errorf("minio storage: %w", err)
		}
		return ms, "", nil
	default:
		dir := cfg.StorageLocalDir
		if dir == "" {
			dir = "media"
		}
		baseURL := cfg.StoragePublicURL
		if baseURL == "" {
			baseURL = "/media"
		}
		ls, err := storage.NewLocalStore(dir, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("local storage: %w", err)
		}
		return ls, ls.Dir(), nil
	}
}

func newPublisher(cfg *config.Config, rdb *redis.Client) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case "redis":
		return events.NewRedisPublisher(rdb, events.DefaultRedisChannel), nil
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic)
	case "both":
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		return events.Multi(events.NewRedisPublisher(rdb, events.DefaultRedisChannel), kp), nil
	default:
		return events.NopPublisher{}, nil
	}
}

// NewApp builds the Fiber application with middleware and routes but does not listen.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "yatube",
		StrictRouting: false,
		BodyLimit:     bodyLimit,
		ErrorHandler:  s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return models.RespondWithError(c, fe.Code, models.NewNotFoundError("Page", c.Path()))
		}
		return models.RespondWithError(c, fe.Code, errors.New(fe.Message))
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Resolve the viewer before ContextMiddleware so logs carry the user id.
	app.Use(s.Identify())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.TracingMiddleware())

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP), enforced where
	// the per-route limits are.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.rateLimiter.Enabled()
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
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if s.mediaDir != "" {
		app.Static("/media", s.mediaDir)
	}

	rl := s.rateLimiter

	// Posts
	app.Get("/", s.Index)
	app.Get("/group/:slug", s.GroupPosts)
	app.Get("/follow", s.AuthRequired(), s.FollowIndex)
	app.Get("/create", s.AuthRequired(), s.CreatePostForm)
	app.Post("/create", s.AuthRequired(),
		rl.Limit("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)

	// Specific /profile/:username/... routes before the profile page itself
	app.Get("/profile/:username/follow", s.AuthRequired(), s.ProfileFollow)
	app.Get("/profile/:username/unfollow", s.AuthRequired(), s.ProfileUnfollow)
	app.Get("/profile/:username", s.Profile)

	app.Get("/posts/:id/edit", s.EditPostForm)
	app.Post("/posts/:id/edit", s.EditPost)
	app.Post("/posts/:id/delete", s.DeletePost)
	app.Post("/posts/:id/comment", s.AuthRequired(),
		rl.Limit("create_comment", 20, time.Minute, middleware.FailOpen), s.AddComment)
	app.Get("/posts/:id", s.PostDetail)

	// Static pages
	app.Get("/about/author", s.AboutAuthor)
	app.Get("/about/tech", s.AboutTech)

	// Auth
	auth := app.Group("/auth")
	auth.Get("/signup", s.SignupForm)
	auth.Post("/signup", rl.Limit("signup", 3, 10*time.Minute, middleware.FailOpen), s.Signup)
	auth.Get("/login", s.LoginForm)
	auth.Post("/login", rl.Limit("login", 10, 5*time.Minute, middleware.FailClosed), s.Login)
	auth.Get("/logout", s.Logout)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so a
// missing client is reported but does not fail the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
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

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
