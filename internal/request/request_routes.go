package request

import (
	"leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", handler.Submit)
		requests.GET("", handler.GetAll)
		requests.GET("/:id", handler.GetById)
		requests.POST("/:id/approve",
			middleware.RequireRole(middleware.RoleManager, middleware.RoleHR, middleware.RoleAdmin),
			handler.Approve)
		requests.POST("/:id/reject",
			middleware.RequireRole(middleware.RoleManager, middleware.RoleHR, middleware.RoleAdmin),
			handler.Reject)
		requests.POST("/:id/cancel", handler.Cancel)
		requests.POST("/:id/viewed",
			middleware.RequireRole(middleware.RoleHR, middleware.RoleAdmin),
			handler.MarkViewed)
		requests.POST("/:id/priority", handler.SetPriority)
	}
}
