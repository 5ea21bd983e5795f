package switchyard

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrControllerNotFound is returned when dispatching a route whose
	// controller is not registered.
	ErrControllerNotFound = errors.New("controller not found")
	// ErrMethodNotFound is returned when dispatching a route whose controller
	// has no such method.
	ErrMethodNotFound = errors.New("controller method not found")
)

// Error lets a handler or middleware choose how a failure is reported:
//   - Code is the HTTP status of the response.
//   - ClientMsg is sent to the client, typically a sanitized message like
//     "Internal Server Error".
//   - LogMsg and Cause end up in the request log.
//
// Cause may be nil.
type Error struct {
	Code      int
	ClientMsg string
	LogMsg    string
	Cause     error
}

func (e Error) Error() string {
	return fmt.Sprintf("[%d] %s: %v", e.Code, e.LogMsg, e.Cause)
}

func (e Error) Unwrap() error { return e.Cause }

// Done can be returned by a middleware to end the request phase early
// without it being treated as a failure.  The handler is skipped and the
// terminate phase still runs.
var Done = errors.New("<done>")

// HandleError fills in resp from err.  An Error anywhere in err's chain
// picks the status code and client message; anything else is a 500.  The
// log message and cause are recorded on entry, which may be nil.
//
// HandleError does nothing for Done.
func HandleError(resp Response, entry *LogEntry, err error) {
	if err == nil || errors.Is(err, Done) {
		return
	}
	var e Error
	if !errors.As(err, &e) {
		e = Error{LogMsg: "Failure", Cause: err}
	}
	if e.Code == 0 {
		e.Code = http.StatusInternalServerError
	}
	if e.ClientMsg == "" {
		e.ClientMsg = http.StatusText(e.Code)
	}
	if entry != nil && e.LogMsg != "" {
		msg := fmt.Sprintf("(%d) %s", e.Code, e.LogMsg)
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
		entry.Error = errors.New(msg)
	}
	resp.SetStatusCode(e.Code)
	resp.SetOutput("")
	resp.SetBody(e.ClientMsg + "\n")
}
