package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"go.uber.org/zap/zapcore"
)

const (
	redacted     = "[REDACTED]"
	maxBodyBytes = 4096
)

// sensitiveName matches header and JSON field names whose values never reach the log
var sensitiveName = regexp.MustCompile(`(?i)authorization|api[-_]?key|token|secret|password|bearer|cookie|session|credential`)

// bodyRecorder tees the response body into a bounded buffer
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if room := maxBodyBytes - w.body.Len(); room > 0 {
		if len(b) > room {
			w.body.Write(b[:room])
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// RequestResponseLogger logs every request with its redacted headers and
// bodies. Client errors log at warn, server errors at error. Request and
// response bodies are only attached at debug level.
func RequestResponseLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxRequestID),
			"user_id", c.GetString(ctxUserID),
			"headers", redactHeaders(c.Request.Header),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, "query", query)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}
		if log.Desugar().Core().Enabled(zapcore.DebugLevel) {
			fields = append(fields,
				"request_body", redactBody(requestBody),
				"response_body", redactBody(recorder.body.Bytes()),
			)
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Errorw("http request", fields...)
		case status >= http.StatusBadRequest:
			log.Warnw("http request", fields...)
		default:
			log.Infow("http request", fields...)
		}
	}
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveName.MatchString(key) {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// redactBody decodes a JSON body and masks sensitive fields at any depth.
// Non JSON bodies are logged as (truncated) text.
func redactBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		s := string(body)
		if len(s) > 1000 {
			s = s[:1000] + "... (truncated)"
		}
		return s
	}
	return redactValue(decoded)
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for key, value := range t {
			if sensitiveName.MatchString(key) {
				t[key] = redacted
			} else {
				t[key] = redactValue(value)
			}
		}
	case []interface{}:
		for i := range t {
			t[i] = redactValue(t[i])
		}
	}
	return v
}
