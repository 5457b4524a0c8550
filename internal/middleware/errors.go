package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/model"
)

// ErrorHandler renders the last error a handler attached with c.Error. The
// status code comes from the error's mark, the message from its hint and the
// field details from its reportable details.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= http.StatusInternalServerError {
			log.Errorw("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"request_id", c.GetString(ctxRequestID),
				"error", err,
			)
		}

		c.JSON(status, model.ErrorResponse{
			Status:  statusLabel(status),
			Message: displayMessage(err, status),
			Details: errorDetails(err),
		})
	}
}

func displayMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "An unexpected error occurred"
	}
	if hint := strings.TrimSpace(ierr.Hint(err)); hint != "" {
		return hint
	}
	return http.StatusText(status)
}

func errorDetails(err error) []model.ErrorDetail {
	details := ierr.Details(err)
	if len(details) == 0 {
		return nil
	}

	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]model.ErrorDetail, 0, len(fields))
	for _, field := range fields {
		msg, _ := details[field].(string)
		out = append(out, model.ErrorDetail{Field: field, Message: msg})
	}
	return out
}

func statusLabel(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusConflict:
		return "Conflict"
	default:
		return "Internal Server Error"
	}
}
