package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/cache"
	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/handlers"
	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/middleware"
	"healthcare-booking-server/internal/models"
)

// Deps is everything the handlers are built from.
type Deps struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *zap.Logger
	Store    *inventory.Store
	Bookings *booking.Service
	Cache    cache.Cache
	Limiter  *middleware.RateLimiter
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, d Deps) {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}

	// Initialize handlers
	doctorHandler := handlers.NewDoctorHandler(d.DB, d.Cfg, d.Bookings, d.Logger)
	hospitalHandler := handlers.NewHospitalHandler(d.DB, d.Cfg, d.Store, d.Cache, d.Logger)
	patientHandler := handlers.NewPatientHandler(d.DB, d.Cfg, d.Store, d.Bookings, d.Cache, d.Logger)
	contactHandler := handlers.NewContactHandler(d.DB, d.Logger)

	api := router.Group("/api")
	api.Use(middleware.Authenticate(d.Cfg))

	doctorRoutes := api.Group("/doctor")
	{
		doctorRoutes.POST("/register", doctorHandler.Register)
		doctorRoutes.POST("/login", d.Limiter.Limit("login"), doctorHandler.Login)

		doctorOnly := doctorRoutes.Group("")
		doctorOnly.Use(middleware.RequireRole(d.Cfg, models.RoleDoctor))
		{
			doctorOnly.GET("/appointments", doctorHandler.Appointments)
			doctorOnly.GET("/patient/:id", doctorHandler.GetPatient)
		}
	}

	hospitalRoutes := api.Group("/hospital")
	{
		hospitalRoutes.POST("/register", hospitalHandler.Register)
		hospitalRoutes.POST("/login", d.Limiter.Limit("login"), hospitalHandler.Login)
		hospitalRoutes.GET("/all", hospitalHandler.All)

		dashboard := hospitalRoutes.Group("/dashboard/:hospitalId")
		dashboard.Use(middleware.RequireRole(d.Cfg, models.RoleHospital))
		{
			dashboard.GET("", hospitalHandler.GetDashboard)
			dashboard.PUT("", hospitalHandler.UpdateDashboard)
			dashboard.POST("/doctor", hospitalHandler.AddDoctorSlots)
		}
	}

	patientRoutes := api.Group("/patient")
	{
		patientRoutes.POST("/register", patientHandler.Register)
		patientRoutes.POST("/login", d.Limiter.Limit("login"), patientHandler.Login)
		patientRoutes.GET("/hospitals", patientHandler.SearchHospitals)
		patientRoutes.GET("/hospitals/:hospitalId/doctors", patientHandler.HospitalDoctors)

		patientOnly := patientRoutes.Group("")
		patientOnly.Use(middleware.RequireRole(d.Cfg, models.RolePatient))
		{
			patientOnly.POST("/book-slot", d.Limiter.Limit("book-slot"), patientHandler.BookSlot)
			patientOnly.GET("/:id", patientHandler.GetProfile)
			patientOnly.PUT("/:id", patientHandler.UpdateProfile)
		}
	}

	api.POST("/contact", contactHandler.Send)

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
