package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Service identity reported by the info endpoint.
const (
	serviceName    = "Status API"
	serviceVersion = "1.0.0"
)

// InfoHandler reports service name and version.
type InfoHandler struct{}

// NewInfoHandler constructs an InfoHandler.
func NewInfoHandler() *InfoHandler {
	return &InfoHandler{}
}

// Info returns the service name and version.
func (h *InfoHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"serviceName": serviceName,
		"version":     serviceVersion,
	})
}
