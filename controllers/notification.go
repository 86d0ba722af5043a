package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/push"
	"github.com/roomly/roomly-be/services"
)

type NotificationController struct {
	scheduler *services.NotificationScheduler
}

func NewNotificationController(scheduler *services.NotificationScheduler) *NotificationController {
	return &NotificationController{scheduler: scheduler}
}

type SubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription" binding:"required"`
}

func (nc *NotificationController) Subscribe(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := nc.scheduler.Subscribe(c.Request.Context(), userID.(uint),
		req.Subscription.Endpoint, req.Subscription.Keys.P256dh, req.Subscription.Keys.Auth)
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscribed"})
}

// Unsubscribe removes the push endpoint and cancels every pending schedule
// entry for the caller.
func (nc *NotificationController) Unsubscribe(c *gin.Context) {
	userID, _ := c.Get("user_id")

	if err := nc.scheduler.Unsubscribe(c.Request.Context(), userID.(uint)); err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

// SendTest pushes an immediate notification, outside the timer path.
func (nc *NotificationController) SendTest(c *gin.Context) {
	userID, _ := c.Get("user_id")

	err := nc.scheduler.SendNow(c.Request.Context(), userID.(uint), push.Payload{
		Title: "Test notification",
		Body:  "Push notifications are working.",
	})
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification sent"})
}
