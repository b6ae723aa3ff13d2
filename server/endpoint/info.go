package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voicegate/version"
)

// startTime records when the process started for uptime calculation.
var startTime = time.Now()

// ModelInfoFunc reports the loaded speech model for /info.
type ModelInfoFunc func() any

// Info returns a handler that reports the service, its version and, when
// model is set, the speech model in use.
func Info(serviceName string, model ModelInfoFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service": serviceName,
			"version": version.GetShortVersion(),
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		}
		if model != nil {
			body["model"] = model()
		}
		c.JSON(http.StatusOK, body)
	}
}

// Root returns the service banner served at "/".
func Root(serviceName, apiPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": serviceName + " is running",
			"version": version.Version,
			"docs":    apiPrefix + "/info",
		})
	}
}
