package engine

// Error is an expected rule violation. The engine returns these as values and
// never panics for bad input; the session layer decides how to surface them.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func ruleErr(message string) *Error { return &Error{Message: message} }
