package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kama-line/service-reservation/internal/domain/errs"
)

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// Error maps a domain error onto the matching HTTP status.
func Error(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: err.Error()})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, Envelope{Success: false, Error: err.Error()})
	case errs.IsForbidden(err):
		c.JSON(http.StatusForbidden, Envelope{Success: false, Error: err.Error()})
	case errs.IsAlreadyInState(err), errs.IsConflict(err):
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
	}
}
