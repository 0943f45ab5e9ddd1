package serrors

import "fmt"

// Error is a coded error suitable for API responses: a stable machine
// code plus a human message. Details is optional free-form context.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewError(code, message, details string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) WithDetails(details string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}
