package email

import "fmt"

// Error codes mirror the domain classes so handlers can map them without an
// import cycle.
const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
)

// EmailError is returned for messages that can never be delivered as built.
type EmailError struct {
	Code    string
	Message string
	Err     error
}

func (e *EmailError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EmailError) Unwrap() error {
	return e.Err
}

// Is matches on code and message so wrapped instances compare equal to the
// sentinels below.
func (e *EmailError) Is(target error) bool {
	t, ok := target.(*EmailError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func (e *EmailError) ErrorCode() string {
	return e.Code
}

var (
	ErrNoRecipient        = &EmailError{Code: codeInvalid, Message: "Email has no recipient"}
	ErrInvalidFromAddress = &EmailError{Code: codeInvalid, Message: "Invalid from email address"}
	ErrInvalidToAddress   = &EmailError{Code: codeInvalid, Message: "Invalid to email address"}
	ErrRender             = &EmailError{Code: codeInternal, Message: "Email template failed to render"}
)

func wrap(sentinel *EmailError, err error) error {
	return &EmailError{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}
