package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates an external service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an external API returned an error
	ErrExternal = errors.New("external API error")

	// ErrNotImplemented indicates a feature is not implemented
	ErrNotImplemented = errors.New("not implemented")
)

// VendorError reports a single vendor call failure. It is recoverable: the
// caller is expected to fall back to the next vendor in priority order.
type VendorError struct {
	Vendor     string
	Capability string
	Err        error
}

// Error implements the error interface
func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor %s failed for %s: %v", e.Vendor, e.Capability, e.Err)
}

// Unwrap returns the wrapped error
func (e *VendorError) Unwrap() error {
	return e.Err
}

// NewVendorError creates a new vendor error
func NewVendorError(vendor, capability string, err error) *VendorError {
	return &VendorError{Vendor: vendor, Capability: capability, Err: err}
}

// DataAcquisitionError reports that every vendor configured for a capability
// has been exhausted. It is fatal for the run: the workflow must not proceed
// on a partially-filled ledger.
type DataAcquisitionError struct {
	Capability string
	Attempted  []string
	LastReason error
}

// Error implements the error interface
func (e *DataAcquisitionError) Error() string {
	return fmt.Sprintf("data acquisition failed for %s: vendors exhausted [%s], last reason: %v",
		e.Capability, strings.Join(e.Attempted, ", "), e.LastReason)
}

// Unwrap returns the last vendor failure
func (e *DataAcquisitionError) Unwrap() error {
	return e.LastReason
}

// NewDataAcquisitionError creates a new data acquisition error
func NewDataAcquisitionError(capability string, attempted []string, lastReason error) *DataAcquisitionError {
	return &DataAcquisitionError{Capability: capability, Attempted: attempted, LastReason: lastReason}
}

// ParseError reports a payload that was retrieved but is structurally invalid.
// During acquisition it is treated as a vendor failure for fallback purposes.
type ParseError struct {
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error (%s): %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error (%s): %s", e.Source, e.Message)
}

// Unwrap returns the wrapped error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new parse error
func NewParseError(source, message string) *ParseError {
	return &ParseError{Source: source, Message: message}
}

// ProviderKind classifies LLM provider failures.
type ProviderKind string

const (
	ProviderAuth      ProviderKind = "auth"
	ProviderQuota     ProviderKind = "quota"
	ProviderNetwork   ProviderKind = "network"
	ProviderMalformed ProviderKind = "malformed"
)

// ProviderError reports an LLM provider call failure. Quota and network
// failures are retried with backoff by the provider client before being
// surfaced; auth and malformed failures are not retryable.
type ProviderError struct {
	Provider string
	Kind     ProviderKind
	Err      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed (%s): %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the wrapped error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may resolve on retry
func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderQuota || e.Kind == ProviderNetwork
}

// NewProviderError creates a new provider error
func NewProviderError(provider string, kind ProviderKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// WorkflowError reports an invalid state transition or a violated node
// contract. It is always a programming error, never expected in normal
// operation.
type WorkflowError struct {
	Phase   string
	Message string
}

// Error implements the error interface
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow error in %s: %s", e.Phase, e.Message)
}

// NewWorkflowError creates a new workflow error
func NewWorkflowError(phase, message string) *WorkflowError {
	return &WorkflowError{Phase: phase, Message: message}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf annotates err with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// New creates a new error from a message
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new error from a formatted message
func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
