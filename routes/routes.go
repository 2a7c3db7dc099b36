package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/pawdesk/petcare_backend/handlers"
	"bitbucket.org/pawdesk/petcare_backend/middlewares"
)

func SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middlewares.TenantMiddleware())
	{
		reservations := v1.Group("/reservations")
		{
			reservations.POST("", handlers.CreateReservation)
			reservations.GET("", handlers.ListReservations)
			reservations.GET("/:id", handlers.GetReservation)
			reservations.PATCH("/:id", handlers.UpdateReservation)

			reservations.POST("/:id/recurrence", handlers.CreateRecurrence)
			reservations.DELETE("/:id/recurrence", handlers.DeleteRecurrence)
			reservations.POST("/:id/recurrence/generate", handlers.GenerateRecurrenceInstances)
		}

		resources := v1.Group("/resources")
		{
			resources.POST("", handlers.CreateResource)
			resources.GET("", handlers.ListResources)
			resources.GET("/:id", handlers.GetResource)
			resources.PATCH("/:id", handlers.UpdateResource)
		}
	}
}
