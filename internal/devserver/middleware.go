package devserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrorResponse is the error body of every endpoint. Message is a string or,
// for validation failures, a list of strings.
type ErrorResponse struct {
	Message any `json:"message"`
}

// requestID echoes X-Request-ID or assigns one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger writes one slog record per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		level := slog.LevelInfo
		if p.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(p.Request.Context(), level, "http request",
			"method", p.Method,
			"path", p.Path,
			"status", p.StatusCode,
			"latency", p.Latency.String(),
			"client_ip", p.ClientIP,
			"request_id", p.Request.Header.Get("X-Request-ID"),
		)
		return ""
	})
}

func abortMessage(c *gin.Context, status int, message any) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed", "path", c.Request.URL.Path, "error", err)
	abortMessage(c, http.StatusInternalServerError, "Internal server error")
}

// respondBindError turns binding failures into a 400 with one message per
// rejected field.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
		abortMessage(c, http.StatusBadRequest, msgs)
		return
	}
	abortMessage(c, http.StatusBadRequest, "Malformed request body")
}
