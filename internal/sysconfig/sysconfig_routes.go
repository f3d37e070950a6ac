package sysconfig

import (
	"leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	admin := r.Group("/admin/config")
	admin.Use(middleware.AuthMiddleware())
	{
		admin.GET("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleHR), handler.List)
		admin.PUT("/:key", middleware.RequireRole(middleware.RoleAdmin), handler.Update)
	}
}
