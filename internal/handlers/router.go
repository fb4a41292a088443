package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const serviceName = "lms-service"

type HandlerManager struct {
	serviceManager      services.ServiceManager
	authHandler         *AuthHandler
	courseHandler       *CourseHandler
	userHandler         *UserHandler
	eventHandler        *EventHandler
	announcementHandler *AnnouncementHandler
	progressHandler     *ProgressHandler
	watchHandler        *WatchHandler
	authMiddleware      *AuthMiddleware
	logger              utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	subscriber ChangeSubscriber,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:      serviceManager,
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		courseHandler:       NewCourseHandler(serviceManager.Course(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		eventHandler:        NewEventHandler(serviceManager.Event(), logger),
		announcementHandler: NewAnnouncementHandler(serviceManager.Announcement(), logger),
		progressHandler:     NewProgressHandler(serviceManager.Progress(), logger),
		watchHandler:        NewWatchHandler(subscriber, logger),
		authMiddleware:      NewAuthMiddleware(serviceManager.Auth(), logger),
		logger:              logger,
	}
}

// SetupBlobRoutes serves locally stored uploads under /blobs. Only used
// when uploads are kept in memory.
func (hm *HandlerManager) SetupBlobRoutes(router *gin.Engine, reader BlobReader) {
	router.GET("/blobs/*path", NewBlobHandler(reader, hm.logger).ServeBlob)
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	v1 := router.Group("/api/v1")

	// Public routes
	public := v1.Group("/auth")
	{
		public.POST("/register", hm.authHandler.Register)
		public.POST("/sign-in", hm.authHandler.SignIn)
	}

	api := v1.Group("")
	api.Use(hm.authMiddleware.Authenticate())
	{
		api.GET("/auth/me", hm.authHandler.Me)

		moderators := RequireRole(models.RoleModerator)
		admins := RequireRole(models.RoleAdmin)

		// Course and lesson routes
		courses := api.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.POST("", admins, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", admins, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", admins, hm.courseHandler.DeleteCourse)

			courses.GET("/:id/lessons", hm.courseHandler.ListLessons)
			courses.POST("/:id/lessons", admins, hm.courseHandler.AddLesson)
			courses.PUT("/:id/lessons/:index", admins, hm.courseHandler.UpdateLesson)
			courses.DELETE("/:id/lessons/:index", admins, hm.courseHandler.DeleteLesson)

			// Progress - any authenticated user
			courses.POST("/:id/progress/start", hm.progressHandler.StartCourse)
			courses.POST("/:id/progress/complete-lesson", hm.progressHandler.CompleteLesson)
			courses.POST("/:id/progress/retake", hm.progressHandler.RetakeCourse)
		}

		me := api.Group("/me")
		{
			me.GET("/courses", hm.progressHandler.MyCourses)
			me.GET("/badges", hm.progressHandler.Badges)
		}

		// User routes
		users := api.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetProfile)
			users.PUT("/me", hm.userHandler.UpdateProfile)
			users.POST("/me/skip-setup", hm.userHandler.SkipProfileSetup)

			// Self or admin, checked by the service
			users.GET("/:id", hm.userHandler.GetUser)

			users.GET("", admins, hm.userHandler.ListUsers)
			users.POST("", admins, hm.userHandler.CreateUser)
			users.PUT("/:id", admins, hm.userHandler.UpdateUser)
			users.PUT("/:id/role", admins, hm.userHandler.ChangeRole)
			users.DELETE("/:id", admins, hm.userHandler.DeleteUser)
		}

		events := api.Group("/events")
		{
			events.GET("/upcoming", hm.eventHandler.ListUpcoming)
			events.GET("/past", hm.eventHandler.ListPast)
			events.GET("/search", hm.eventHandler.SearchEvents)
			events.GET("/:id", hm.eventHandler.GetEvent)
			events.POST("", moderators, hm.eventHandler.CreateEvent)
			events.PUT("/:id", moderators, hm.eventHandler.UpdateEvent)
			events.DELETE("/:id", moderators, hm.eventHandler.DeleteEvent)
		}

		announcements := api.Group("/announcements")
		{
			announcements.GET("", hm.announcementHandler.ListAnnouncements)
			announcements.GET("/:id", hm.announcementHandler.GetAnnouncement)
			announcements.POST("", moderators, hm.announcementHandler.CreateAnnouncement)
			announcements.PUT("/:id", moderators, hm.announcementHandler.UpdateAnnouncement)
			announcements.DELETE("/:id", moderators, hm.announcementHandler.DeleteAnnouncement)
		}

		api.GET("/watch/:collection", hm.watchHandler.Watch)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.GetLogger(c, hm.logger).Error("Health check failed", "error", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}
