package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so errors.Is works
// against the sentinels below even when the message was specialised.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrMedicationNotFound = &AppError{Code: "MED_001", Message: "medication not found"}
	ErrMedicationInvalid  = &AppError{Code: "MED_002", Message: "invalid medication"}

	ErrStorage = &AppError{Code: "STORE_001", Message: "storage failure"}

	ErrSkillNotFound  = &AppError{Code: "SKILL_001", Message: "skill not found"}
	ErrSkillExecution = &AppError{Code: "SKILL_002", Message: "skill execution failed"}
	ErrToolNotFound   = &AppError{Code: "SKILL_003", Message: "tool not found"}

	ErrNotFound        = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest      = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal        = &AppError{Code: "GEN_003", Message: "internal error"}
	ErrInvalidArgument = &AppError{Code: "GEN_004", Message: "invalid argument"}
)

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// InvalidArgument builds a GEN_004 error with a specific message.
func InvalidArgument(format string, args ...interface{}) *AppError {
	return New(ErrInvalidArgument.Code, fmt.Sprintf(format, args...))
}
