// Package errors provides structured error types for backlogctl.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for backlogctl.
const (
	// Store errors
	CodeJobNotFound    Code = "JOB_NOT_FOUND"
	CodeReportNotFound Code = "REPORT_NOT_FOUND"
	CodeLLMConfigError Code = "LLM_CONFIG_NOT_FOUND"

	// External endpoint errors
	CodeAuthFailed          Code = "AUTH_FAILED"
	CodeEndpointUnavailable Code = "ENDPOINT_UNAVAILABLE"
	CodeEndpointRejected    Code = "ENDPOINT_REJECTED"
	CodeWatchTimeout        Code = "WATCH_TIMEOUT"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"
)

// Category groups error codes by failure mode.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryConflict
	CategoryTimeout
	CategoryUnavailable
	CategoryUnauthorized
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeJobNotFound:         CategoryNotFound,
	CodeReportNotFound:      CategoryNotFound,
	CodeLLMConfigError:      CategoryNotFound,
	CodeAuthFailed:          CategoryUnauthorized,
	CodeEndpointUnavailable: CategoryUnavailable,
	CodeEndpointRejected:    CategoryBadRequest,
	CodeWatchTimeout:        CategoryTimeout,
	CodeConfigInvalid:       CategoryBadRequest,
	CodeConfigMissing:       CategoryBadRequest,
}

// Retryable reports whether errors in this category are transient.
func (c Category) Retryable() bool {
	switch c {
	case CategoryTimeout, CategoryUnavailable:
		return true
	default:
		return false
	}
}

// ToolError is the structured error type for backlogctl.
type ToolError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *ToolError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category.
func (e *ToolError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// MarshalJSON implements json.Marshaler.
func (e *ToolError) MarshalJSON() ([]byte, error) {
	type alias ToolError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a ToolError with the same code.
func (e *ToolError) Is(target error) bool {
	t, ok := target.(*ToolError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *ToolError) WithCause(err error) *ToolError {
	return &ToolError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrJobNotFound returns an error for a missing job.
func ErrJobNotFound(id string) *ToolError {
	return &ToolError{
		Code: CodeJobNotFound,
		What: fmt.Sprintf("job %s not found", id),
		Fix:  "Run 'backlogctl jobs list' to see tracked jobs",
	}
}

// ErrReportNotFound returns an error for a job with no stored report.
func ErrReportNotFound(jobID string) *ToolError {
	return &ToolError{
		Code: CodeReportNotFound,
		What: fmt.Sprintf("no report stored for job %s", jobID),
		Why:  "The generation pipeline did not persist a report for this job",
		Fix:  "Run 'backlogctl reports missing' to list all affected jobs",
	}
}

// ErrLLMConfigNotFound returns an error for a missing LLM configuration.
func ErrLLMConfigNotFound(name string) *ToolError {
	return &ToolError{
		Code: CodeLLMConfigError,
		What: fmt.Sprintf("LLM configuration %q not found", name),
		Fix:  "Run 'backlogctl llm list' to see stored configurations",
	}
}

// ErrAuthFailed returns an error for rejected credentials.
func ErrAuthFailed(endpoint string) *ToolError {
	return &ToolError{
		Code: CodeAuthFailed,
		What: fmt.Sprintf("authentication rejected by %s", endpoint),
		Fix:  "Check the configured credentials and token expiry",
	}
}

// ErrEndpointUnavailable returns an error for an unreachable endpoint.
func ErrEndpointUnavailable(name string, cause error) *ToolError {
	return &ToolError{
		Code:  CodeEndpointUnavailable,
		What:  fmt.Sprintf("%s is unreachable", name),
		Fix:   "Verify the configured URL and that the service is running",
		Cause: cause,
	}
}

// ErrEndpointRejected returns an error for a non-success HTTP response.
func ErrEndpointRejected(name string, status int, body string) *ToolError {
	why := fmt.Sprintf("HTTP %d", status)
	if body != "" {
		why += ": " + body
	}
	return &ToolError{
		Code: CodeEndpointRejected,
		What: fmt.Sprintf("%s rejected the request", name),
		Why:  why,
	}
}

// ErrWatchTimeout returns an error for a watch that hit its deadline.
func ErrWatchTimeout(jobID string) *ToolError {
	return &ToolError{
		Code: CodeWatchTimeout,
		What: fmt.Sprintf("gave up waiting for job %s", jobID),
		Why:  "The job did not reach a terminal status before the watch deadline",
		Fix:  "Increase api.poll_timeout or check the job later with 'backlogctl jobs show'",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *ToolError {
	return &ToolError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration value for %s", field),
		Why:  reason,
	}
}

// ErrConfigMissing returns an error for required configuration that is unset.
func ErrConfigMissing(field string) *ToolError {
	return &ToolError{
		Code: CodeConfigMissing,
		What: fmt.Sprintf("required configuration %s is not set", field),
		Fix:  fmt.Sprintf("Set %s in .backlogctl/config.yaml or via the matching BACKLOGCTL_* variable", field),
	}
}

// CategoryOf returns the category of err when it wraps a ToolError,
// CategoryUnknown otherwise.
func CategoryOf(err error) Category {
	var te *ToolError
	if stderrors.As(err, &te) {
		return te.Category()
	}
	return CategoryUnknown
}

// FromHTTPStatus maps an HTTP response status to a coded error for the
// named endpoint. Success statuses return nil.
func FromHTTPStatus(name string, status int, body string) *ToolError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 401 || status == 403:
		return ErrAuthFailed(name)
	case status == 502 || status == 503 || status == 504:
		return &ToolError{
			Code: CodeEndpointUnavailable,
			What: fmt.Sprintf("%s is unavailable", name),
			Why:  fmt.Sprintf("HTTP %d", status),
		}
	default:
		return ErrEndpointRejected(name, status, body)
	}
}
