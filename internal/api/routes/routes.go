package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"pet-service/internal/api/handlers"
	"pet-service/internal/api/middleware"
	"pet-service/internal/database"
	"pet-service/internal/events"
	"pet-service/internal/repositories/postgres"
	"pet-service/internal/services"
	"pet-service/internal/websocket"
)

type Router struct {
	engine *gin.Engine

	authHandler   *handlers.AuthHandler
	userHandler   *handlers.UserHandler
	petHandler    *handlers.PetHandler
	taskHandler   *handlers.TaskHandler
	wsHandler     *handlers.WebSocketHandler
	statusHandler *handlers.StatusHandler

	authMW      *middleware.AuthMiddleware
	rateLimitMW *middleware.RateLimitMiddleware
}

func NewRouter(
	hub *websocket.Hub,
	db *gorm.DB,
	redisClient *redis.Client,
	storage *database.MinIOClient,
	producer *events.Producer,
	jwtSecret string,
	jwtExpire time.Duration,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	userRepo := postgres.NewUserRepository(db)
	petRepo := postgres.NewPetRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	presence := services.NewPresenceService(redisClient)
	userService := services.NewUserService(userRepo, jwtSecret, jwtExpire)
	petService := services.NewPetService(petRepo, userService, hub, producer)
	taskService := services.NewTaskService(taskRepo, petService, hub)

	return &Router{
		engine:        engine,
		authHandler:   handlers.NewAuthHandler(userService),
		userHandler:   handlers.NewUserHandler(userService, storage),
		petHandler:    handlers.NewPetHandler(petService),
		taskHandler:   handlers.NewTaskHandler(taskService),
		wsHandler:     handlers.NewWebSocketHandler(hub),
		statusHandler: handlers.NewStatusHandler(hub, presence),
		authMW:        middleware.NewAuthMiddleware(jwtSecret),
		rateLimitMW:   middleware.NewRateLimitMiddleware(presence),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.statusHandler.Health)
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	api.POST("/auth/register", r.authHandler.Register)
	api.POST("/auth/login", r.authHandler.Login)

	// WebSocket upgrade authenticates via query token; headers are not
	// available on a browser WebSocket dial.
	api.GET("/ws", r.authMW.WSAuth(), r.wsHandler.Serve)

	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/me", r.userHandler.GetProfile)
			users.PUT("/me", r.userHandler.UpdateProfile)
			users.POST("/me/avatar", r.userHandler.UploadAvatar)
		}

		pets := auth.Group("/pets")
		pets.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			pets.GET("", r.petHandler.ListPets)
			pets.POST("", r.petHandler.CreatePet)
			pets.GET("/:id", r.petHandler.GetPet)
			pets.POST("/:id/invite", r.petHandler.Invite)
			pets.POST("/:id/feed", r.petHandler.Feed)
			pets.POST("/:id/play", r.petHandler.Play)
			pets.GET("/:id/tasks", r.taskHandler.ListTasks)
			pets.POST("/:id/tasks", r.taskHandler.CreateTask)
		}

		tasks := auth.Group("/tasks")
		tasks.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			tasks.POST("/:taskId/complete", r.taskHandler.CompleteTask)
			tasks.POST("/:taskId/assign", r.taskHandler.AssignTask)
		}

		status := auth.Group("/status")
		{
			status.GET("/connections", r.statusHandler.ConnectionStatus)
			status.GET("/rooms/:id", r.statusHandler.RoomStatus)
			status.GET("/online", r.statusHandler.OnlineUsers)
		}
	}
}

// Engine exposes the configured gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
