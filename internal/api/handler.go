package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-enrollment-backend/config"
	"course-enrollment-backend/internal/auth"
	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/mw"
	"course-enrollment-backend/internal/notification"
	"course-enrollment-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	tokens      *auth.TokenService
	workerPool  *notification.WorkerPool
	courseCache *mw.ResponseCache
	authCfg     config.AuthConfig
	pushCfg     config.PushConfig
}

// NewHandler creates a new API handler. workerPool may be nil when push
// notifications are disabled.
func NewHandler(s store.Store, tokens *auth.TokenService, workerPool *notification.WorkerPool, courseCache *mw.ResponseCache, cfg *config.Config) *Handler {
	return &Handler{
		store:       s,
		tokens:      tokens,
		workerPool:  workerPool,
		courseCache: courseCache,
		authCfg:     cfg.Auth,
		pushCfg:     cfg.Push,
	}
}

// writeError maps domain outcomes onto HTTP statuses. Failure payloads
// carry a machine-readable reason next to the human-readable error.
func writeError(c *gin.Context, err error) {
	var conflict *enroll.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":                 conflict.Error(),
			"reason":                "schedule_conflict",
			"conflicting_course_id": conflict.CourseID,
			"conflicting_course":    conflict.CourseCode,
		})
		return
	}

	switch {
	case errors.Is(err, enroll.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, enroll.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, enroll.ErrCourseNotFound),
		errors.Is(err, enroll.ErrEnrollmentNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, enroll.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": "already_enrolled"})
	case errors.Is(err, enroll.ErrCourseFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": "course_full"})
	case errors.Is(err, enroll.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": "invalid_transition"})
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrDuplicateCourseCode):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidCourse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, enroll.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
