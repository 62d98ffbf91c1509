// Package response holds the JSON envelope every endpoint of the service renders:
// {"success": bool, "message": string, "data": any}.
package response

import "github.com/labstack/echo/v4"

// Envelope is the canonical response body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Fail writes a failure envelope with the given status.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

// OK writes a success envelope carrying data.
func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}
