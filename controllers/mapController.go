package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch-be/models"
)

// Region handles GET /report/admin/map
func (h *Handlers) Region(c *gin.Context) {
	var bounds models.Bounds
	if err := c.ShouldBindQuery(&bounds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	points, err := h.Geo.QueryRegion(c.Request.Context(), actor(c), bounds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// StreetOverlay handles GET /street/street
func (h *Handlers) StreetOverlay(c *gin.Context) {
	overlay, err := h.Streets.Overlay(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streets": overlay})
}
