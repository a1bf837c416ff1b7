package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/model"
	"course-enrollment-backend/internal/mw"
	"course-enrollment-backend/internal/notification"
)

type createEnrollmentRequest struct {
	CourseID int64 `json:"course_id" binding:"required"`
}

// enrollmentResponse is the API shape of an enrollment.
type enrollmentResponse struct {
	ID        int64                 `json:"id"`
	CourseID  int64                 `json:"course_id"`
	UserID    string                `json:"user_id"`
	State     model.EnrollmentState `json:"state"`
	CreatedAt time.Time             `json:"created_at"`
	Course    *courseResponse       `json:"course,omitempty"`
}

func toEnrollmentResponse(e *model.Enrollment) enrollmentResponse {
	resp := enrollmentResponse{
		ID:        e.ID,
		CourseID:  e.CourseID,
		UserID:    e.UserID,
		State:     e.State,
		CreatedAt: e.CreatedAt,
	}
	if e.Course.ID != 0 {
		course := toCourseResponse(&e.Course)
		resp.Course = &course
	}
	return resp
}

// CreateEnrollment handles POST /api/enrollments: the admission request.
func (h *Handler) CreateEnrollment(c *gin.Context) {
	var req createEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, role, ok := mw.Identity(c)
	if !ok {
		writeError(c, enroll.ErrUnauthenticated)
		return
	}

	enrollment, err := h.store.TryEnroll(c.Request.Context(), enroll.Actor{ID: userID, Role: role}, req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEnrollmentResponse(enrollment))
}

// ListEnrollments handles GET /api/enrollments. Students see their own;
// coordinators see everything.
func (h *Handler) ListEnrollments(c *gin.Context) {
	userID, role, ok := mw.Identity(c)
	if !ok {
		writeError(c, enroll.ErrUnauthenticated)
		return
	}
	if role == model.RoleCoordinator {
		userID = ""
	}

	enrollments, err := h.store.ListEnrollments(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]enrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		responses = append(responses, toEnrollmentResponse(&enrollments[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// CancelOwnEnrollment handles DELETE /api/enrollments/:id. The record is
// moved to Cancelled rather than removed, so the student may re-enroll
// later.
func (h *Handler) CancelOwnEnrollment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment ID"})
		return
	}

	userID, _, ok := mw.Identity(c)
	if !ok {
		writeError(c, enroll.ErrUnauthenticated)
		return
	}

	enrollment, err := h.store.CancelOwn(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEnrollmentResponse(enrollment))
}

// ConfirmEnrollment handles POST /api/enrollments/:id/confirm
// (coordinator only).
func (h *Handler) ConfirmEnrollment(c *gin.Context) {
	h.transition(c, model.StateConfirmed)
}

// CancelEnrollment handles POST /api/enrollments/:id/cancel (coordinator
// only).
func (h *Handler) CancelEnrollment(c *gin.Context) {
	h.transition(c, model.StateCancelled)
}

func (h *Handler) transition(c *gin.Context, next model.EnrollmentState) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment ID"})
		return
	}

	enrollment, err := h.store.SetEnrollmentState(c.Request.Context(), id, next)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.workerPool != nil {
		h.workerPool.Dispatch(notification.Event{EnrollmentID: enrollment.ID, State: next})
	}

	c.JSON(http.StatusOK, toEnrollmentResponse(enrollment))
}
