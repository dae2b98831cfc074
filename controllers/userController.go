package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch-be/middlewares"
	"parkwatch-be/models"
	"parkwatch-be/services"
)

type registerInput struct {
	FirstName   string `json:"firstName" form:"firstName" binding:"required"`
	LastName    string `json:"lastName" form:"lastName" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	Password    string `json:"password" form:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber" binding:"required"`
	Address     string `json:"address" form:"address"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) setAuthCookie(c *gin.Context, token string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    token,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   h.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handlers) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Users.Register(c.Request.Context(), services.RegisterArgs{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Password:    input.Password,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login handles POST /auth/mobile/auth. Mobile clients keep the token from
// the body, browsers get it as a cookie.
func (h *Handlers) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Users.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setAuthCookie(c, res.Token, int(h.TokenTTL.Seconds()))
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) Logout(c *gin.Context) {
	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handlers) Profile(c *gin.Context) {
	u, err := h.Users.Profile(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type profileInput struct {
	FirstName   *string `form:"firstName"`
	LastName    *string `form:"lastName"`
	PhoneNumber *string `form:"phoneNumber"`
	Address     *string `form:"address"`
}

func (h *Handlers) UpdateProfile(c *gin.Context) {
	var input profileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	avatars, err := formFiles(c, "avatar")
	if err != nil {
		h.respondError(c, err)
		return
	}
	args := services.UpdateProfileArgs{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
	}
	if len(avatars) > 0 {
		args.Avatar = &avatars[0]
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), actor(c), args)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": u})
}

func (h *Handlers) UpdatePushToken(c *gin.Context) {
	var input struct {
		Token string `json:"expoPushToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Users.UpdatePushToken(c.Request.Context(), actor(c), input.Token); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push token updated"})
}

func (h *Handlers) ChangeRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.ChangeRole(c.Request.Context(), actor(c), id, input.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
