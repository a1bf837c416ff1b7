package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"course-enrollment-backend/config"
	"course-enrollment-backend/internal/auth"
	"course-enrollment-backend/internal/model"
	"course-enrollment-backend/internal/mw"
	"course-enrollment-backend/internal/notification"
	"course-enrollment-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. workerPool may be
// nil when push notifications are disabled.
func NewRouter(s store.Store, tokens *auth.TokenService, workerPool *notification.WorkerPool, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	courseCache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	handler := NewHandler(s, tokens, workerPool, courseCache, cfg)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	authenticate := mw.Authenticate(tokens)
	coordinatorOnly := mw.RequireRole(model.RoleCoordinator)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)

		// Catalog reads are public; listings go through the course cache.
		api.GET("/courses", courseCache.Middleware(), handler.ListCourses)
		api.GET("/courses/:id", handler.GetCourse)

		// Course management (coordinator).
		api.POST("/courses", authenticate, coordinatorOnly, handler.CreateCourse)
		api.PUT("/courses/:id", authenticate, coordinatorOnly, handler.UpdateCourse)
		api.POST("/courses/:id/deactivate", authenticate, coordinatorOnly, handler.DeactivateCourse)

		// Enrollments.
		api.POST("/enrollments", authenticate, handler.CreateEnrollment)
		api.GET("/enrollments", authenticate, handler.ListEnrollments)
		api.DELETE("/enrollments/:id", authenticate, handler.CancelOwnEnrollment)
		api.POST("/enrollments/:id/confirm", authenticate, coordinatorOnly, handler.ConfirmEnrollment)
		api.POST("/enrollments/:id/cancel", authenticate, coordinatorOnly, handler.CancelEnrollment)

		// Push subscriptions.
		api.GET("/subscriptions", authenticate, handler.GetSubscription)
		api.PUT("/subscriptions", authenticate, handler.PutSubscription)
		api.DELETE("/subscriptions", authenticate, handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
