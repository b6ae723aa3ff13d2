package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voicegate/util"
)

const defaultMaxBodySize = 12 << 20

// BodySizeLimit returns a Gin middleware that restricts the request body to
// the given size string (e.g. "12MB", "512KB"). Reads past the limit fail
// with *http.MaxBytesError.
func BodySizeLimit(maxSize string) gin.HandlerFunc {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}
