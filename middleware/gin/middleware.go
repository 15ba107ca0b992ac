package ginmw

import (
	"github.com/gin-gonic/gin"

	"github.com/reoring/oaschema/extract"
	"github.com/reoring/oaschema/middleware"
)

// Extract runs ex against the request, stores the value in the request
// context, and on failure aborts with the extraction status and Issues payload.
func Extract[T any](ex extract.Extractor[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := extract.FromRequest(c.Request, ex)
		if err != nil {
			status, issues := middleware.Status(err)
			c.AbortWithStatusJSON(status, middleware.ErrorPayload(issues))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithValue(c.Request.Context(), v))
		c.Next()
	}
}

// GetValue fetches the extracted T from gin.Context.
func GetValue[T any](c *gin.Context) (T, bool) {
	return middleware.ValueFromContext[T](c.Request.Context())
}
