package apitest

import (
	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of every error and acknowledgment the fake
// server sends.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, MessageResponse{Message: message})
}

func ackResponse(c *gin.Context, statusCode int, message string, id int64) {
	c.JSON(statusCode, MessageResponse{Message: message, ID: id})
}
