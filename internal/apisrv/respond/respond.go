// Package respond carries the uniform JSON error envelope used by every
// handler. Handlers never write ad hoc error bodies; they render one of the
// constructors below so clients always see {"message": ...} and the
// underlying error stays in the logs.
package respond

import (
	"net/http"

	"github.com/go-chi/render"
)

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	Message string `json:"message"` // user-level message
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		Message:        err.Error(),
	}
}

func ErrUnauthorized(msg string) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        msg,
	}
}

func ErrNotFound(msg string) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusNotFound,
		Message:        msg,
	}
}

func ErrConflict(msg string) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusConflict,
		Message:        msg,
	}
}

func ErrTooManyRequests(msg string) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusTooManyRequests,
		Message:        msg,
	}
}

// ErrInternal hides the underlying error from the client; the handler is
// expected to log it.
func ErrInternal(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		Message:        "internal server error",
	}
}
