package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/editor"
	mw "github.com/unrealsaint/lucera2missionparser/middleware"
	"github.com/unrealsaint/lucera2missionparser/reward"
)

// statusFor maps service and codec errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, editor.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, editor.ErrNoPath), errors.Is(err, editor.ErrBadPath):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrNoDatabase):
		return http.StatusServiceUnavailable
	case errors.Is(err, reward.ErrIO):
		return http.StatusInternalServerError
	case errors.Is(err, reward.ErrMalformedRecord),
		errors.Is(err, reward.ErrMissingField),
		errors.Is(err, reward.ErrInvalidInteger),
		errors.Is(err, reward.ErrInvalidFloat):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Parse errors carry their location.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error(), "trace_id": mw.GetTraceID(c)}
	var pe *reward.ParseError
	if errors.As(err, &pe) {
		body["kind"] = reward.Kind(err)
		body["record"] = pe.Record
		body["field"] = pe.Field
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

// WithActor tags the request context with the caller so the editor can
// attribute audit entries and change events. Mount it after mw.Auth.
func WithActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := editor.WithActor(c.Request.Context(), editor.Actor{
			Editor:  mw.GetEditor(c),
			TraceID: mw.GetTraceID(c),
			IP:      c.ClientIP(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
