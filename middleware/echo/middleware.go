package echomw

import (
	"github.com/labstack/echo/v4"

	"github.com/reoring/oaschema/extract"
	"github.com/reoring/oaschema/middleware"
)

// Extract runs ex against the request, stores the value in context on
// success, or responds with the extraction status and Issues payload.
func Extract[T any](ex extract.Extractor[T]) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, err := extract.FromRequest(c.Request(), ex)
			if err != nil {
				status, issues := middleware.Status(err)
				return c.JSON(status, middleware.ErrorPayload(issues))
			}
			ctx := middleware.ContextWithValue(c.Request().Context(), v)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValue fetches the extracted T from echo.Context.
func GetValue[T any](c echo.Context) (T, bool) {
	return middleware.ValueFromContext[T](c.Request().Context())
}
