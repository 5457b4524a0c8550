package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common error hints
const (
	ErrInvalidInput       = "Invalid input format"
	ErrInvalidID          = "Invalid ID provided"
	ErrInvalidQueryParams = "Invalid query parameters"
)

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// respondCreated sends a 201 Created response with data
func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// respondNoContent sends a 204 No Content response
func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondError hands err to the error middleware, which picks the status
// code and renders the body
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
}
