package router

import (
	"github.com/gin-gonic/gin"

	"github.com/neverthesameagain/Splitzy-Pay/internal/httputil"
)

// URLMiddleware stores the API base URL in the context so that handlers
// can construct resource links.
func URLMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("baseURL", httputil.RequestHost(c))
	}
}
