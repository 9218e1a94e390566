package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

const internalMessage = "internal server error"

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    ErrorCode              `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenderError writes err as a JSON error response. Errors that are not
// structured, or carry ErrCodeInternal, are logged and rendered with a fixed
// message so storage text never reaches the client.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	var e *Error
	if !errors.As(err, &e) || e.Code == ErrCodeInternal {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: internalMessage, Code: ErrCodeInternal})
		return
	}

	status := e.HTTPStatusCode()
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "code", e.Code, "message", e.Message)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: e.Message, Code: e.Code, Details: e.Details})
}
