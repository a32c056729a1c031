package utils

import (
	"github.com/labstack/echo/v4"
)

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// ReadRequest binds and validates the request body into s.
func ReadRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return err
	}
	return ValidateStruct(c.Request().Context(), s)
}
