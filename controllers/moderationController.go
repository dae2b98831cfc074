package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkwatch-be/models"
	"parkwatch-be/services"
)

// UpdateStatus handles PUT /report/update-status/:id. With plateId the move
// applies to the aggregate's constituents, optionally narrowed by reportId.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	confirmation, err := formFiles(c, "images", "images[]", "confirmationImages")
	if err != nil {
		h.respondError(c, err)
		return
	}
	args := services.UpdateStatusArgs{
		ReportID:     id,
		Status:       models.Status(c.PostForm("status")),
		PlateID:      c.PostForm("plateId"),
		Confirmation: confirmation,
	}
	ids := c.PostFormArray("reportId")
	ids = append(ids, c.PostFormArray("reportId[]")...)
	for _, raw := range ids {
		rid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			badRequest(c, "Invalid reportId %q", raw)
			return
		}
		args.ReportIDs = append(args.ReportIDs, rid)
	}

	res, err := h.Moderation.UpdateStatus(c.Request.Context(), actor(c), args)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ApprovedReports lists the Approved work queue of one kind
func (h *Handlers) ApprovedReports(kind models.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.Moderation.ListApproved(c.Request.Context(), actor(c), kind)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
