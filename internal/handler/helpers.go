package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/validator"
)

// getIDParam reads a positive integer path parameter
func getIDParam(c *gin.Context, paramName string) (int64, error) {
	value := c.Param(paramName)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, ierr.NewError(fmt.Sprintf("invalid %s %q", paramName, value)).
			WithHint(ErrInvalidID).
			WithReportableDetails(map[string]any{paramName: "must be a positive integer"}).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

// bindJSON decodes the request body into obj and runs tag validation
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return ierr.WithError(err).
			WithHint(ErrInvalidInput).
			Mark(ierr.ErrValidation)
	}
	return validator.ValidateRequest(obj)
}

// bindQuery decodes the query string into obj and runs tag validation
func bindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return ierr.WithError(err).
			WithHint(ErrInvalidQueryParams).
			Mark(ierr.ErrValidation)
	}
	return validator.ValidateRequest(obj)
}
