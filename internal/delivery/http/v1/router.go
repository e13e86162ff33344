package v1

import (
	"net/http"

	"go-jobalert-scheduler/internal/delivery/http/middleware"
	"go-jobalert-scheduler/internal/delivery/http/response"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/usecase"
	"go-jobalert-scheduler/pkg/auth"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	AlertUC     domain.AlertUsecase
	SocialUC    domain.SocialUsecase
	ExportUC    domain.ExportUsecase
	HealthUC    usecase.HealthUsecase
	Tokens      *auth.TokenManager
	Redis       *goredis.Client // optional, shares rate limit counters across instances
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.CORSOrigins)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	v1.GET("/health", func(c *gin.Context) {
		status := deps.HealthUC.Check(c.Request.Context())
		if status["status"] != "ok" {
			response.Success(c, http.StatusServiceUnavailable, "System degraded", status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	protected := v1.Group("")
	protected.Use(middleware.AdminAuth(deps.Tokens))
	{
		limit := middleware.RateLimitMiddleware(middleware.TriggerRateLimitConfig(deps.Redis))
		NewAlertHandler(protected, deps.AlertUC, deps.ExportUC, limit)
		NewSocialHandler(protected, deps.SocialUC, limit)
	}

	return r
}
