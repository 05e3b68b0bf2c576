package services

import (
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindForbidden  ErrorKind = "forbidden"
	KindNotFound   ErrorKind = "not_found"
	KindDuplicate  ErrorKind = "duplicate"
	KindStorage    ErrorKind = "storage"
	KindInternal   ErrorKind = "internal"
)

var kindStatus = map[ErrorKind]int{
	KindValidation: http.StatusBadRequest,
	KindAuth:       http.StatusUnauthorized,
	KindForbidden:  http.StatusForbidden,
	KindNotFound:   http.StatusNotFound,
	KindDuplicate:  http.StatusConflict,
	KindStorage:    http.StatusInternalServerError,
	KindInternal:   http.StatusInternalServerError,
}

type AppError struct {
	Kind     ErrorKind
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PublicMessage is what clients see. The wrapped Err never leaves the server.
func (e *AppError) PublicMessage() string {
	if e.Message == "" {
		return http.StatusText(e.HTTPCode)
	}
	return e.Message
}

func newAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, HTTPCode: kindStatus[kind], Message: message, Err: err}
}

func newAppErrorWithData(kind ErrorKind, message string, data interface{}, err error) *AppError {
	return &AppError{Kind: kind, HTTPCode: kindStatus[kind], Message: message, Data: data, Err: err}
}

func ValidationError(message string) *AppError {
	return newAppError(KindValidation, message, nil)
}

func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr != nil && appErr.Kind == kind
}
