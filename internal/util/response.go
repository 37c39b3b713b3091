package util

import "github.com/gin-gonic/gin"

// Error writes the portal's uniform error payload.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
