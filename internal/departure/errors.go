package departure

import "fmt"

// Messages carried in the error field of a failed response
const (
	MsgUnresolvedTime = "time parameter could not be resolved to a single instant"
	MsgDateConversion = "Error converting time to date"
	MsgResolution     = "Error resolving departures"
)

// ParameterError is returned when the request parameters cannot be used
type ParameterError struct {
	Message string
}

func (e *ParameterError) Error() string {
	return e.Message
}

func NewParameterError(message string) *ParameterError {
	return &ParameterError{
		Message: message,
	}
}

// ServiceDateError is returned when a stop's service date cannot be derived
// from the threshold time. It aborts the whole request.
type ServiceDateError struct {
	StopID string
	Key    string
	Err    error
}

func (e *ServiceDateError) Error() string {
	return fmt.Sprintf("converting time to service date %q for stop %s: %v", e.Key, e.StopID, e.Err)
}

func (e *ServiceDateError) Unwrap() error {
	return e.Err
}
