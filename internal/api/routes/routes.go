package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/api/handlers"
	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/auth"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/profile"
)

// Deps is everything the router hands to its handlers.
type Deps struct {
	Logger         logging.Logger
	AllowedOrigins []string
	Verifier       *auth.Verifier
	Profiles       *profile.Service

	Profile      *handlers.ProfileHandler
	Farm         *handlers.FarmHandler
	Animal       *handlers.AnimalHandler
	Activity     *handlers.ActivityHandler
	Notification *handlers.NotificationHandler
	Cron         *handlers.CronHandler
	WebSocket    *handlers.WebSocketHandler
	Health       *handlers.HealthHandler
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(logging.GinMiddleware(d.Logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/health", d.Health.Health)
		apiV1.GET("/ws", d.WebSocket.ServeWs)

		// the scheduler authenticates with the cron secret, not a user token
		cron := apiV1.Group("/cron")
		{
			cron.GET("/reminders", d.Cron.RunReminders)
			cron.POST("/reminders", d.Cron.TriggerReminders)
		}

		authed := apiV1.Group("/")
		authed.Use(middleware.Authenticate(d.Verifier))

		// profile routes work before a profile exists
		profileRoutes := authed.Group("/profile")
		{
			profileRoutes.GET("", d.Profile.GetProfile)
			profileRoutes.POST("/complete", d.Profile.CompleteProfile)
		}

		app := authed.Group("/")
		app.Use(middleware.ResolveProfile(d.Profiles))
		{
			farms := app.Group("/farms")
			{
				farms.GET("", d.Farm.ListFarms)
				farms.POST("", d.Farm.CreateFarm)
			}

			animals := app.Group("/animals")
			{
				animals.GET("", d.Animal.ListAnimals)
				animals.POST("", d.Animal.CreateAnimal)
				animals.POST("/generate-id", d.Animal.GenerateID)
				animals.POST("/check-duplicate", d.Animal.CheckDuplicate)
				animals.GET("/:id", d.Animal.GetAnimal)
				animals.PUT("/:id", d.Animal.UpdateAnimal)
				animals.POST("/:id/image", d.Animal.UploadImage)
			}

			activities := app.Group("/activities")
			{
				activities.GET("", d.Activity.ListActivities)
				activities.POST("", d.Activity.CreateActivity)
				activities.GET("/:id", d.Activity.GetActivity)
				activities.PUT("/:id", d.Activity.UpdateActivity)
				activities.DELETE("/:id", d.Activity.DeleteActivity)
				activities.PUT("/:id/status", d.Activity.ChangeStatus)
			}

			notifications := app.Group("/notifications")
			{
				notifications.GET("", d.Notification.ListNotifications)
				notifications.POST("", d.Notification.Post)
				notifications.POST("/subscribe", d.Notification.Subscribe)
				notifications.POST("/test", d.Notification.SendTest)
				notifications.DELETE("", d.Notification.Unsubscribe)
			}
		}
	}

	return router
}
