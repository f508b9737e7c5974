package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Setup errors. These are returned while handlers are being built and never
// reach a client.
var (
	ErrNoAdapter = errors.New("endpoints: no adapter specified")
	ErrConfig    = errors.New("endpoints: invalid configuration")
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// ConfigError reports every incompatibility found between an operation
// configuration and its adapter.
type ConfigError struct {
	Method   Method
	Failures []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, strings.Join(e.Failures, "\n"))
}

// Unwrap lets callers match with errors.Is(err, ErrConfig).
func (e *ConfigError) Unwrap() error { return ErrConfig }

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	// Pointer is a JSON pointer to the offending member of the request document.
	Pointer string `json:"pointer,omitempty"`
	// Parameter names the offending query parameter.
	Parameter string `json:"parameter,omitempty"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// PointerError returns a client error that points at a member of the request document.
func PointerError(status int, pointer, message string) error {
	return &HTTPError{Status: status, Message: message, Pointer: pointer}
}

// ParameterError returns a client error caused by a query parameter.
func ParameterError(status int, parameter, message string) error {
	return &HTTPError{Status: status, Message: message, Parameter: parameter}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource locates the cause of an error in the request.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// FieldError describes a single member of the request document that failed
// validation.
type FieldError struct {
	Pointer string
	Message string
}

// ValidationErrors is returned by request validators that can report more
// than one problem at once. It always maps to 400 Bad Request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		if fe.Pointer == "" {
			msgs[i] = fe.Message
			continue
		}
		msgs[i] = fe.Pointer + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// StatusCode returns http.StatusBadRequest.
func (v ValidationErrors) StatusCode() int { return http.StatusBadRequest }

// errorObjects converts err into the JSON:API error objects sent to the client.
// Errors that carry no status are reported as a bare 500 without detail so
// that storage internals never leak.
func errorObjects(err error) []*ErrorObject {
	var verrs ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		objs := make([]*ErrorObject, len(verrs))
		for i, fe := range verrs {
			objs[i] = newErrorObject(http.StatusBadRequest, fe.Message, fe.Pointer)
		}
		return objs
	}

	status := ErrorStatus(err)
	var he *HTTPError
	if !errors.As(err, &he) {
		if status >= http.StatusInternalServerError {
			return []*ErrorObject{newErrorObject(status, "", "")}
		}
		return []*ErrorObject{newErrorObject(status, err.Error(), "")}
	}
	obj := newErrorObject(status, err.Error(), he.Pointer)
	if he.Parameter != "" {
		obj.Source = &ErrorSource{Parameter: he.Parameter}
	}
	return []*ErrorObject{obj}
}

func newErrorObject(status int, detail, pointer string) *ErrorObject {
	obj := &ErrorObject{
		Status: strconv.Itoa(status),
		Title:  http.StatusText(status),
		Detail: detail,
	}
	if pointer != "" {
		obj.Source = &ErrorSource{Pointer: pointer}
	}
	return obj
}
