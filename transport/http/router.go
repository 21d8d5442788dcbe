package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/artmint/gatehouse/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(authService *service.AuthService, log *zap.Logger) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService, log)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public auth routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", handlers.SignUp)
		auth.POST("/login", handlers.Login)
		auth.POST("/wallet", handlers.WalletLogin)
	}

	// Authenticated auth routes
	authed := auth.Group("", AuthMiddleware(authService))
	{
		authed.GET("/me", handlers.Me)
		authed.GET("/nonce", handlers.Nonce)
	}

	// Account management
	users := router.Group("/api/users", AuthMiddleware(authService))
	{
		users.DELETE("/:id", handlers.DeleteAccount)
	}

	// Admin routes
	admin := router.Group("/api/admin", AuthMiddleware(authService), RequireAdmin())
	{
		admin.GET("/users", handlers.ListUsers)
		admin.PUT("/users/:id/role", handlers.UpdateUserRole)
		admin.DELETE("/users/:id", handlers.DeleteUser)
	}

	return router
}
