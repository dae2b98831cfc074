package routes

import (
	"github.com/gin-gonic/gin"

	"parkwatch-be/controllers"
	"parkwatch-be/models"
)

// ReportRoutes sets up submission, listing, moderation and map routes.
// limit guards the two submission endpoints.
func ReportRoutes(r *gin.Engine, h *controllers.Handlers, auth, limit gin.HandlerFunc) {
	report := r.Group("/report", auth)
	{
		report.POST("/post/report", limit, h.CreatePlateReport)
		report.POST("/post/obstruction", limit, h.CreateObstruction)

		report.GET("/fetch/all/reports", h.Feed)
		report.GET("/fetch/all", h.MyReports)

		report.PUT("/update/report/:id", h.UpdateReport(models.KindPlate))
		report.PUT("/update/obstruction/:id", h.UpdateReport(models.KindObstruction))
		report.DELETE("/delete/report/:id", h.DeleteReport(models.KindPlate))
		report.DELETE("/delete/obstruction/:id", h.DeleteReport(models.KindObstruction))

		report.PUT("/update-status/:id", h.UpdateStatus)
	}

	admin := report.Group("/admin")
	{
		admin.GET("/report/:id", h.ReportDetail(models.KindPlate))
		admin.GET("/obstruction/:id", h.ReportDetail(models.KindObstruction))
		admin.GET("/report/report/approved", h.ApprovedReports(models.KindPlate))
		admin.GET("/obstruction/report/approved", h.ApprovedReports(models.KindObstruction))
		admin.GET("/pending", h.PendingReports)
		admin.GET("/plate/:plate", h.Aggregate)
		admin.GET("/map", h.Region)
	}
}
