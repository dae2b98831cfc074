package routes

import (
	"github.com/gin-gonic/gin"

	"parkwatch-be/controllers"
)

// AuthRoutes sets up the login route used by the mobile and admin clients
func AuthRoutes(r *gin.Engine, h *controllers.Handlers) {
	auth := r.Group("/auth")
	{
		auth.POST("/mobile/auth", h.Login)
	}
}
