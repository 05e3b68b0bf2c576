package handlers

import (
	"net/http"
	"strings"
	"time"

	"jaryo/middleware"
	"jaryo/services"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "email, password and name are required")
		return
	}

	user, err := h.services.Auth.Signup(c.Request.Context(), services.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, gin.H{"id": user.ID}, "signup complete")
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "email and password are required")
		return
	}

	out, err := h.services.Auth.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if respondServiceError(c, err) {
		return
	}

	h.setSessionCookie(c, out.Token, int(time.Until(out.ExpiresAt).Seconds()))
	utils.Success(c, out.User)
}

func (h *Handler) Logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c, h.cfg.AuthCookie.Name)
	if respondServiceError(c, h.services.Auth.Logout(c.Request.Context(), token)) {
		return
	}
	h.setSessionCookie(c, "", -1)
	utils.SuccessMessage(c, "logged out")
}

// Session reports the current user, or null, and never fails for anonymous callers.
func (h *Handler) Session(c *gin.Context) {
	var user interface{}
	if principal, ok := middleware.CurrentPrincipal(c); ok {
		user = principal.User()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) Me(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	profile, err := h.services.Auth.GetProfile(c.Request.Context(), principal.UserID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, profile)
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	cookie := h.cfg.AuthCookie
	switch strings.ToLower(cookie.SameSite) {
	case "strict":
		c.SetSameSite(http.SameSiteStrictMode)
	case "none":
		c.SetSameSite(http.SameSiteNoneMode)
	default:
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(cookie.Name, value, maxAge, cookie.Path, "", cookie.Secure, cookie.HttpOnly)
}
