package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/handler"
	"github.com/invigo/invigo-backend/internal/middleware"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	PublicTest *handler.PublicTestHandler
	Candidate  *handler.CandidateHandler
	Answer     *handler.AnswerHandler
	Violation  *handler.ViolationHandler
	Admin      *handler.AdminHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the public write routes (30 requests per minute per IP).
	startLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/test/:token", handlers.PublicTest.GetPublicTest)
	}

	// ─── 2. Candidate Group (Attempt-Scoped, No Auth) ──────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	{
		candidateAPI.POST("/start", startLimiter.Middleware(), handlers.Candidate.StartTest)
		candidateAPI.GET("/test/:attempt_id", handlers.Candidate.GetCandidateTest)
	}

	answersAPI := router.Group("/api/v1/answers")
	{
		answersAPI.POST("/save", handlers.Answer.SaveAnswer)
		answersAPI.POST("/submit", handlers.Answer.SubmitTest)
	}

	violationsAPI := router.Group("/api/v1/violations")
	{
		violationsAPI.POST("/log", handlers.Violation.LogViolation)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/attempt/:attempt_id", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	router.POST("/api/v1/admin/login", loginLimiter.Middleware(), handlers.Admin.Login)

	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.POST("/tests", handlers.Admin.CreateTest)
		adminAPI.GET("/tests", handlers.Admin.ListTests)
		adminAPI.GET("/tests/:test_id/results", handlers.Admin.TestResults)
		adminAPI.GET("/tests/:test_id/violations", handlers.Admin.TestViolations)
	}

	return router
}
