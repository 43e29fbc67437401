// Package apperrors defines the failure signals of the template matcher.
//
// Every error that crosses a component boundary is an *Error carrying a stable
// Code. Boundaries (HTTP, MCP, CLI) switch on the code rather than on message
// text, so the mapping from failure kind to response is documented in one
// place: StatusFor and the Code constants below.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code identifies a failure kind.
type Code string

const (
	// CodeInvalidImage: the template image could not be decoded. Not retried.
	CodeInvalidImage Code = "INVALID_IMAGE"

	// CodeRegionNotFound: the template has no text region and the analysis
	// was configured to require one.
	CodeRegionNotFound Code = "REGION_NOT_FOUND"

	// CodeCollaboratorFailure: a detection, classification or text
	// recognition call failed.
	CodeCollaboratorFailure Code = "COLLABORATOR_FAILURE"

	// CodeCacheCorrupt: the persisted template cache is unreadable.
	CodeCacheCorrupt Code = "CACHE_CORRUPT"

	// CodeStorageFailed: the template cache could not be written.
	CodeStorageFailed Code = "STORAGE_FAILED"

	// CodePrecondition: selection was attempted before any template was cached.
	CodePrecondition Code = "PRECONDITION"

	// CodeInvalidInput: a request argument is missing or malformed.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeNotFound: a looked-up template is not in the cache.
	CodeNotFound Code = "NOT_FOUND"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidImage        = &Error{Code: CodeInvalidImage}
	ErrRegionNotFound      = &Error{Code: CodeRegionNotFound}
	ErrCollaboratorFailure = &Error{Code: CodeCollaboratorFailure}
	ErrCacheCorrupt        = &Error{Code: CodeCacheCorrupt}
	ErrStorageFailed       = &Error{Code: CodeStorageFailed}
	ErrPrecondition        = &Error{Code: CodePrecondition}
	ErrInvalidInput        = &Error{Code: CodeInvalidInput}
	ErrNotFound            = &Error{Code: CodeNotFound}
)

// Error is a structured failure.
type Error struct {
	Code       Code
	Message    string
	TemplateID string
	Timestamp  time.Time
	Details    map[string]interface{}
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.TemplateID != "" {
		msg = fmt.Sprintf("%s (template %q)", msg, e.TemplateID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithTemplate returns a copy of e annotated with a template identifier.
func (e *Error) WithTemplate(id string) *Error {
	cp := *e
	cp.TemplateID = id
	return &cp
}

// ToMap converts the error to a response body.
func (e *Error) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"code":    string(e.Code),
		"error":   e.Message,
		"message": e.Message,
	}
	if e.TemplateID != "" {
		result["template_id"] = e.TemplateID
	}
	for k, v := range e.Details {
		result[k] = v
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}

// CodeOf extracts the code of the first *Error in err's chain.
// Errors outside the taxonomy report an empty code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// As returns the first *Error in err's chain, wrapping foreign errors so that
// boundaries always have a structured value to render.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: "INTERNAL", Message: "internal error", Timestamp: time.Now(), Cause: err}
}

// StatusFor maps a code to the HTTP status used by the API boundary.
func StatusFor(code Code) int {
	switch code {
	case CodeInvalidImage, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRegionNotFound:
		return http.StatusUnprocessableEntity
	case CodePrecondition:
		return http.StatusConflict
	case CodeCollaboratorFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(code Code, msg string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   msg,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// InvalidImage reports an undecodable template image.
func InvalidImage(source string, cause error) *Error {
	e := newError(CodeInvalidImage, fmt.Sprintf("cannot decode image %s", source), cause)
	e.Details = map[string]interface{}{"source": source}
	return e
}

// RegionNotFound reports a template without any usable region of the given label.
func RegionNotFound(label string) *Error {
	e := newError(CodeRegionNotFound, fmt.Sprintf("no %q region detected", label), nil)
	e.Details = map[string]interface{}{"label": label}
	return e
}

// CollaboratorFailure reports a failed perception call. collaborator is one of
// "detector", "classifier" or "text-reader".
func CollaboratorFailure(collaborator string, cause error) *Error {
	e := newError(CodeCollaboratorFailure, fmt.Sprintf("%s call failed", collaborator), cause)
	e.Details = map[string]interface{}{"collaborator": collaborator}
	return e
}

// CacheCorrupt reports an unreadable persisted cache.
func CacheCorrupt(path string, reason string, cause error) *Error {
	e := newError(CodeCacheCorrupt, fmt.Sprintf("template cache %s is corrupt: %s", path, reason), cause)
	e.Details = map[string]interface{}{"path": path}
	return e
}

// StorageFailed reports a failed write of the cache or a stored template.
func StorageFailed(path string, cause error) *Error {
	e := newError(CodeStorageFailed, fmt.Sprintf("failed to write %s", path), cause)
	e.Details = map[string]interface{}{"path": path}
	return e
}

// NoTemplates reports a selection request against an empty cache.
func NoTemplates() *Error {
	return newError(CodePrecondition, "no templates cached; upload and analyze templates first", nil)
}

// InvalidInput reports a malformed request argument.
func InvalidInput(msg string) *Error {
	return newError(CodeInvalidInput, msg, nil)
}

// TemplateNotFound reports a lookup of a template that is not cached.
func TemplateNotFound(id string) *Error {
	e := newError(CodeNotFound, fmt.Sprintf("template %q is not cached", id), nil)
	e.TemplateID = id
	return e
}
