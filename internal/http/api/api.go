package api

import (
	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/auth"
	"github.com/squadup/status-api/internal/groups"
	"github.com/squadup/status-api/internal/http/api/handlers"
	"github.com/squadup/status-api/internal/statuses"
	"gorm.io/gorm"
)

// RegisterRoutes registers all API routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, authService *auth.Service, groupService *groups.Service, statusService *statuses.Service) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	infoHandler := handlers.NewInfoHandler()
	r.GET("/info", infoHandler.Info)

	authHandler := handlers.NewAuthHandler(authService)
	authRoutes := r.Group("/auth")
	authRoutes.POST("/signup", authHandler.Signup)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/logout", AuthMiddleware(authService), authHandler.Logout)

	groupHandler := handlers.NewGroupHandler(groupService)
	groupRoutes := r.Group("/groups")
	groupRoutes.POST("", groupHandler.Create)

	authed := groupRoutes.Group("")
	authed.Use(AuthMiddleware(authService))
	authed.GET("", groupHandler.List)
	authed.GET("/me", groupHandler.MyGroups)
	authed.POST("/:groupId/join", groupHandler.Join)

	member := authed.Group("/:groupId")
	member.Use(MembershipMiddleware())
	member.POST("/rotate-key", groupHandler.RotateKey)

	userHandler := handlers.NewUserHandler(groupService)
	member.GET("/users", userHandler.GroupUsers)

	statusHandler := handlers.NewStatusHandler(statusService)
	member.GET("/statuses", statusHandler.List)
	member.PUT("/statuses/me", statusHandler.UpdateMine)
}
