package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parkwatch-be/services"
)

func (h *Handlers) CreateAnnouncement(c *gin.Context) {
	pictures, err := formFiles(c, "pictures", "pictures[]")
	if err != nil {
		h.respondError(c, err)
		return
	}
	a, err := h.Announcements.Create(c.Request.Context(), actor(c), services.CreateAnnouncementArgs{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Pictures:    pictures,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handlers) ListAnnouncements(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.Announcements.List(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": list})
}
