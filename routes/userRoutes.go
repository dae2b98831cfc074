package routes

import (
	"github.com/gin-gonic/gin"

	"parkwatch-be/controllers"
)

func UserRoutes(r *gin.Engine, h *controllers.Handlers, auth gin.HandlerFunc) {
	user := r.Group("/user")
	{
		user.POST("/register", h.Register)
		user.GET("/logout", h.Logout)
		user.GET("/profile", auth, h.Profile)
		user.PUT("/profile", auth, h.UpdateProfile)
		user.PUT("/update-push-token", auth, h.UpdatePushToken)
		user.PUT("/:id/role", auth, h.ChangeRole)
	}
}
