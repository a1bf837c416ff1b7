package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"course-enrollment-backend/internal/model"
	"course-enrollment-backend/internal/store"
)

type courseRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Credits     int    `json:"credits" binding:"required"`
	MaxCapacity int    `json:"max_capacity" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"` // "HH:MM"
	EndTime     string `json:"end_time" binding:"required"`
	Active      *bool  `json:"active"`
}

// courseResponse is the API shape of a catalog course.
type courseResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	MaxCapacity int    `json:"max_capacity"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Active      bool   `json:"active"`
}

func toCourseResponse(course *model.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		Code:        course.Code,
		Name:        course.Name,
		Credits:     course.Credits,
		MaxCapacity: course.MaxCapacity,
		StartTime:   model.FormatClock(course.StartMinute),
		EndTime:     model.FormatClock(course.EndMinute),
		Active:      course.Active,
	}
}

func (r *courseRequest) toModel() (*model.Course, error) {
	start, err := model.ParseClock(r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseClock(r.EndTime)
	if err != nil {
		return nil, err
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &model.Course{
		Code:        r.Code,
		Name:        r.Name,
		Credits:     r.Credits,
		MaxCapacity: r.MaxCapacity,
		StartMinute: start,
		EndMinute:   end,
		Active:      active,
	}, nil
}

// ListCourses handles GET /api/courses. Responses are served through the
// course cache middleware.
func (h *Handler) ListCourses(c *gin.Context) {
	filter := store.CourseFilter{Search: c.Query("search")}

	if v := c.Query("min_credits"); v != "" {
		filter.MinCredits, _ = strconv.Atoi(v)
	}
	if v := c.Query("max_credits"); v != "" {
		filter.MaxCredits, _ = strconv.Atoi(v)
	}
	if v := c.Query("starts_after"); v != "" {
		minute, err := model.ParseClock(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.StartsAtOrAfter = minute
	}
	if v := c.Query("ends_before"); v != "" {
		minute, err := model.ParseClock(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.EndsAtOrBefore = minute
	}

	courses, err := h.store.ListCourses(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]courseResponse, 0, len(courses))
	for i := range courses {
		responses = append(responses, toCourseResponse(&courses[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetCourse handles GET /api/courses/:id.
func (h *Handler) GetCourse(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	course, err := h.store.CourseByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourseResponse(course))
}

// CreateCourse handles POST /api/courses (coordinator only).
func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.CreateCourse(c.Request.Context(), course); err != nil {
		writeError(c, err)
		return
	}

	h.courseCache.Invalidate()
	c.JSON(http.StatusCreated, toCourseResponse(course))
}

// UpdateCourse handles PUT /api/courses/:id (coordinator only).
func (h *Handler) UpdateCourse(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course.ID = id
	if err := h.store.UpdateCourse(c.Request.Context(), course); err != nil {
		writeError(c, err)
		return
	}

	h.courseCache.Invalidate()
	c.JSON(http.StatusOK, toCourseResponse(course))
}

// DeactivateCourse handles POST /api/courses/:id/deactivate (coordinator
// only). Courses are never deleted; deactivation only blocks new
// enrollments.
func (h *Handler) DeactivateCourse(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	if err := h.store.DeactivateCourse(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.courseCache.Invalidate()
	c.Status(http.StatusNoContent)
}
