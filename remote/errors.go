package remote

import (
	"fmt"
)

// Error reports that the service could not produce shader code: the
// request failed in transport, the status was not 2xx, the envelope said
// success=false, or it carried no shader code.
type Error struct {
	// StatusCode is the HTTP status of a non-2xx response, or 0.
	StatusCode int

	// Message is the service's own explanation when it gave one.
	Message string

	// Err is the transport error, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return "generation request failed: " + e.Err.Error()
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("generation service returned %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("generation service returned %d", e.StatusCode)
	case e.Message != "":
		return "generation failed: " + e.Message
	default:
		return "generation failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// MalformedResponseError reports a response that could not be decoded:
// either the envelope itself or the nested shader document.
type MalformedResponseError struct {
	// Reason says what was wrong, e.g. `missing "fragmentShader"`.
	Reason string

	// Err is the decoding error, if any.
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "malformed response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
