package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/app"
	iauth "github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/handlers"
	"github.com/bloodlink/bloodlink/internal/middleware"
	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/realtime"
	"github.com/bloodlink/bloodlink/internal/services"
	"github.com/bloodlink/bloodlink/internal/storage"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// avatars may be nil when object storage is disabled.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, sessions *iauth.SessionService, hub *realtime.Hub, avatars *storage.AvatarStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if hub == nil {
		return nil, fmt.Errorf("realtime hub must be provided")
	}

	accountSvc, err := services.NewAccountService(db)
	if err != nil {
		return nil, err
	}
	profileSvc, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}
	inventorySvc, err := services.NewInventoryService(db, hub)
	if err != nil {
		return nil, err
	}
	emergencySvc, err := services.NewEmergencyService(db, inventorySvc, hub)
	if err != nil {
		return nil, err
	}
	participationSvc, err := services.NewParticipationService(db, hub)
	if err != nil {
		return nil, err
	}
	appointmentSvc, err := services.NewAppointmentService(db, hub)
	if err != nil {
		return nil, err
	}
	conversationSvc, err := services.NewConversationService(db, hub)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	authHandler := handlers.NewAuthHandler(accountSvc, sessions)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	// Authenticated auth routes
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)
	api.DELETE("/auth/account", authHandler.DeleteAccount)

	// Profiles
	profileHandler := handlers.NewProfileHandler(profileSvc, avatars)
	api.GET("/profile", profileHandler.Get)
	api.PATCH("/profile", profileHandler.Update)
	api.POST("/profile/avatar", profileHandler.UploadAvatar)
	api.GET("/profiles/:id", profileHandler.GetPublic)

	// Blood bank inventory
	inventoryHandler := handlers.NewInventoryHandler(inventorySvc)
	inventory := api.Group("/inventory")
	inventory.Use(middleware.RequireRole(models.RoleBloodBank))
	{
		inventory.GET("", inventoryHandler.List)
		inventory.POST("", inventoryHandler.Create)
		inventory.PUT("/:id", inventoryHandler.UpdateQuantity)
		inventory.DELETE("/:id", inventoryHandler.Delete)
	}

	// Emergency posts
	emergencyHandler := handlers.NewEmergencyHandler(emergencySvc)
	participationHandler := handlers.NewParticipationHandler(participationSvc, profileSvc)
	requirePoster := middleware.RequireRole(models.RoleHospital, models.RoleBloodBank)
	emergencies := api.Group("/emergencies")
	{
		emergencies.GET("", emergencyHandler.Feed)
		emergencies.GET("/mine", requirePoster, emergencyHandler.Mine)
		emergencies.GET("/:id", emergencyHandler.Get)
		emergencies.GET("/:id/participations", requirePoster, participationHandler.ListForPost)
		emergencies.POST("", requirePoster, emergencyHandler.Submit)
		emergencies.POST("/post-anyway", middleware.RequireRole(models.RoleHospital), emergencyHandler.PostAnyway)
		emergencies.PATCH("/:id/status", requirePoster, emergencyHandler.UpdateStatus)
		emergencies.DELETE("/:id", requirePoster, emergencyHandler.Delete)
	}

	// Participations
	participations := api.Group("/participations")
	{
		participations.POST("", middleware.RequireRole(models.RoleVolunteer), participationHandler.Record)
		participations.GET("/mine", middleware.RequireRole(models.RoleVolunteer), participationHandler.Mine)
		participations.PATCH("/:id/status", requirePoster, participationHandler.UpdateStatus)
	}

	// Appointments
	appointmentHandler := handlers.NewAppointmentHandler(appointmentSvc)
	appointments := api.Group("/appointments")
	{
		appointments.GET("/hospitals", appointmentHandler.Hospitals)
		appointments.GET("", appointmentHandler.List)
		appointments.POST("", middleware.RequireRole(models.RoleVolunteer), appointmentHandler.Book)
		appointments.PATCH("/:id/status", middleware.RequireRole(models.RoleHospital), appointmentHandler.UpdateStatus)
	}

	// Conversations (hospital to blood bank messaging)
	conversationHandler := handlers.NewConversationHandler(conversationSvc)
	requireParty := middleware.RequireRole(models.RoleHospital, models.RoleBloodBank)
	conversations := api.Group("/conversations")
	conversations.Use(requireParty)
	{
		conversations.POST("", conversationHandler.Open)
		conversations.GET("", conversationHandler.List)
		conversations.GET("/:id/messages", conversationHandler.Messages)
		conversations.POST("/:id/messages", conversationHandler.Send)
		conversations.POST("/:id/read", conversationHandler.MarkRead)
	}

	// Realtime table-change feed
	realtimeHandler := handlers.NewRealtimeHandler(hub)
	api.GET("/ws", realtimeHandler.Serve)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
