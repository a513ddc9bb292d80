package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-scheduling-server/internal/config"
	"hospital-scheduling-server/internal/handlers"
	"hospital-scheduling-server/internal/middleware"
	"hospital-scheduling-server/internal/models"
)

// Deps are the collaborators the route table wires into handlers.
type Deps struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Scheduler handlers.Scheduler
	RoomCache handlers.RoomCache
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Cfg)
	visitHandler := handlers.NewVisitHandler(deps.Scheduler)
	doctorHandler := handlers.NewDoctorHandler(deps.DB)
	patientHandler := handlers.NewPatientHandler(deps.DB)
	roomHandler := handlers.NewRoomHandler(deps.DB, deps.RoomCache)
	specializationHandler := handlers.NewSpecializationHandler(deps.DB, deps.RoomCache)

	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)
	staff := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor)

	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.Cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Ownership checks for patients and doctors happen in the handlers.
		visitRoutes := private.Group("/visits")
		{
			visitRoutes.GET("/available-slots", visitHandler.GetAvailableSlots)
			visitRoutes.GET("/times", visitHandler.GetVisitTimes)
			visitRoutes.POST("", visitHandler.CreateVisit)
			visitRoutes.GET("", visitHandler.ListVisits)
			visitRoutes.GET("/:id", visitHandler.GetVisitByID)
			visitRoutes.PATCH("/:id/cancel", visitHandler.CancelVisit)
			visitRoutes.PATCH("/:id/complete", staff, visitHandler.CompleteVisit)
			visitRoutes.PUT("/:id", adminOnly, visitHandler.EditVisit)
		}

		roomRoutes := private.Group("/rooms")
		{
			roomRoutes.GET("", roomHandler.GetRooms)
			roomRoutes.GET("/:id", roomHandler.GetRoomByID)
			roomRoutes.POST("", adminOnly, roomHandler.CreateRoom)
			roomRoutes.PUT("/:id", adminOnly, roomHandler.UpdateRoom)
			roomRoutes.DELETE("/:id", adminOnly, roomHandler.DeleteRoom)
		}

		specializationRoutes := private.Group("/specializations")
		{
			specializationRoutes.GET("", specializationHandler.GetSpecializations)
			specializationRoutes.GET("/:id", specializationHandler.GetSpecializationByID)
			specializationRoutes.POST("", adminOnly, specializationHandler.CreateSpecialization)
			specializationRoutes.PUT("/:id", adminOnly, specializationHandler.UpdateSpecialization)
			specializationRoutes.DELETE("/:id", adminOnly, specializationHandler.DeleteSpecialization)
			specializationRoutes.POST("/:id/rooms/:roomId", adminOnly, specializationHandler.AddRoom)
			specializationRoutes.DELETE("/:id/rooms/:roomId", adminOnly, specializationHandler.RemoveRoom)
		}

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
			doctorRoutes.POST("", adminOnly, doctorHandler.CreateDoctor)
			doctorRoutes.PUT("/:id/working-hours", staff, doctorHandler.UpdateWorkingHours)
			doctorRoutes.PUT("/:id/specializations", adminOnly, doctorHandler.SetSpecializations)
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("", staff, patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PATCH("/:id/deactivate", adminOnly, patientHandler.DeactivatePatient)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
