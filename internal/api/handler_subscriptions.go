package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/model"
	"course-enrollment-backend/internal/mw"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription handles the creation or replacement of a push
// subscription for the authenticated user.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, _, ok := mw.Identity(c)
	if !ok {
		writeError(c, enroll.ErrUnauthenticated)
		return
	}

	sub := &model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
		UserID:   userID,
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), sub); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// GetSubscription handles the retrieval of one of the caller's
// subscriptions by endpoint.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	userID, _, ok := mw.Identity(c)
	if !ok {
		writeError(c, enroll.ErrUnauthenticated)
		return
	}

	sub, err := h.store.SubscriptionByEndpoint(c.Request.Context(), endpoint)
	if err != nil {
		writeError(c, err)
		return
	}
	if sub.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}

	c.JSON(http.StatusOK, sub)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of one of the caller's
// subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, _, ok := mw.Identity(c)
	if !ok {
		writeError(c, enroll.ErrUnauthenticated)
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), userID, req.Endpoint); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if !h.pushCfg.Enabled || h.pushCfg.PublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.pushCfg.PublicKey})
}
