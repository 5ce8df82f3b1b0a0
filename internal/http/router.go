package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de
// autenticación. CORS, compresión y rate limiting quedan fuera: los aporta
// la capa que despliega el servicio.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	tokenSvc *service.TokenService,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/v1/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout)
	auth.POST("/refresh-tokens", authH.RefreshTokens)
	auth.POST("/forgot-password", authH.ForgotPassword)
	auth.POST("/reset-password", authH.ResetPassword)
	auth.POST("/verify-email", authH.VerifyEmail)
	auth.GET("/google", authH.GoogleOAuth)
	auth.GET("/google/callback", authH.GoogleOAuthCallback)

	auth.POST("/send-verification-email", JWTAuthMiddleware(tokenSvc), authH.SendVerificationEmail)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
