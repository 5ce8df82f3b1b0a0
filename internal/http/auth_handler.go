package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/oauth"
	"auth-api/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
	userServ *service.UserService
	google   *oauth.GoogleProvider
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, userServ *service.UserService, google *oauth.GoogleProvider) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
		userServ: userServ,
		google:   google,
	}
}

// Register maneja POST /v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, pair, err := h.authServ.Register(c.Request.Context(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err, "could not register")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "tokens": pair})
}

// Login maneja POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, pair, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "could not login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
}

// Logout maneja POST /v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.authServ.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.respondError(c, err, "could not logout")
		return
	}
	c.Status(http.StatusNoContent)
}

// RefreshTokens maneja POST /v1/auth/refresh-tokens.
func (h *AuthHandler) RefreshTokens(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.authServ.RefreshAuth(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err, "could not refresh tokens")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// ForgotPassword maneja POST /v1/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid forgot password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.authServ.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err, "could not send reset email")
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetPassword maneja POST /v1/auth/reset-password?token=...
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.authServ.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		h.respondError(c, err, "could not reset password")
		return
	}
	c.Status(http.StatusNoContent)
}

// SendVerificationEmail maneja POST /v1/auth/send-verification-email.
// Requiere access token.
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	user, err := h.userServ.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		h.respondError(c, err, "could not send verification email")
		return
	}
	if err := h.authServ.SendVerificationEmail(c.Request.Context(), user); err != nil {
		h.respondError(c, err, "could not send verification email")
		return
	}
	c.Status(http.StatusNoContent)
}

// VerifyEmail maneja POST /v1/auth/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.authServ.VerifyEmail(c.Request.Context(), token); err != nil {
		h.respondError(c, err, "could not verify email")
		return
	}
	c.Status(http.StatusNoContent)
}

// GoogleOAuth maneja GET /v1/auth/google: redirige al proveedor.
func (h *AuthHandler) GoogleOAuth(c *gin.Context) {
	if !h.google.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google oauth not configured"})
		return
	}
	state, err := oauth.NewState()
	if err != nil {
		h.logger.Error("oauth state failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start oauth"})
		return
	}
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleOAuthCallback maneja GET /v1/auth/google/callback.
func (h *AuthHandler) GoogleOAuthCallback(c *gin.Context) {
	if !h.google.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google oauth not configured"})
		return
	}
	state := c.Query("state")
	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != cookieState {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	profile, err := h.google.FetchProfile(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Warn("google profile fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrGoogleAuthFailed.Error()})
		return
	}

	user, pair, err := h.authServ.GoogleLogin(c.Request.Context(), profile)
	if err != nil {
		h.respondError(c, err, "could not complete oauth")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
}

// respondError traduce errores de los flujos a códigos HTTP. Los mensajes de
// los errores de autenticación son fijos por diseño.
func (h *AuthHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrIncorrectCredentials),
		errors.Is(err, service.ErrAuthenticate),
		errors.Is(err, service.ErrPasswordResetFailed),
		errors.Is(err, service.ErrEmailVerificationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRefreshTokenNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGoogleAuthFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
