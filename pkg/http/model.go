package http

import "github.com/labstack/echo/v4"

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// APIResponse400Err represents 400 error response.
type APIResponse400Err struct {
	Status  int               `json:"status" example:"400"`
	Message string            `json:"message" example:"Bad Request"`
	Data    []ValidationError `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"pair"`
	Message string                 `json:"message,omitempty" example:"pair is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Handler registers routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
