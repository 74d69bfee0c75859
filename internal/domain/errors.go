package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies resolution failures.
type ErrorKind string

const (
	KindInvalidAddress   ErrorKind = "InvalidAddress"
	KindNotFound         ErrorKind = "NotFound"
	KindNoLiquidity      ErrorKind = "NoLiquidity"
	KindProviderError    ErrorKind = "ProviderError"
	KindDiscoveryFailure ErrorKind = "DiscoveryFailure"
)

// Sentinel errors, one per kind. Typed errors below match them via errors.Is.
var (
	ErrInvalidAddress   = errors.New("invalid contract address format")
	ErrNotFound         = errors.New("token not found")
	ErrNoLiquidity      = errors.New("no trading pairs found")
	ErrProviderError    = errors.New("provider error")
	ErrDiscoveryFailure = errors.New("discovery query failed")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidAddress:
		return ErrInvalidAddress
	case KindNotFound:
		return ErrNotFound
	case KindNoLiquidity:
		return ErrNoLiquidity
	case KindDiscoveryFailure:
		return ErrDiscoveryFailure
	default:
		return ErrProviderError
	}
}

// ProviderError is a failure reported by (or while talking to) an external provider.
type ProviderError struct {
	Provider Source
	Kind     ErrorKind
	Op       string // provider operation, e.g. "tokeninfo"
	Message  string
	Err      error // underlying cause, may be nil
}

// NewProviderError creates a ProviderError of the given kind.
func NewProviderError(provider Source, kind ErrorKind, op, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Op: op, Message: message, Err: cause}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the cause and the kind sentinel.
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// KindOf returns the ErrorKind carried by err, defaulting to ProviderError.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	// A failed discovery query outranks whatever provider error caused it.
	if errors.Is(err, ErrDiscoveryFailure) {
		return KindDiscoveryFailure
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return KindInvalidAddress
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNoLiquidity):
		return KindNoLiquidity
	}
	return KindProviderError
}

// DefaultSuggestions are the troubleshooting hints attached to failed analyses.
var DefaultSuggestions = []string{
	"Verify the contract address is correct",
	"Ensure the token exists on Base network",
	"Check if API key is valid and has remaining calls",
	"Try again in a few moments if rate limited",
}

// AnalysisError is the caller-facing failure of a single-token analysis.
type AnalysisError struct {
	Address     string    `json:"address"`
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
	Err         error     `json:"-"`
}

// NewAnalysisError wraps err for address, deriving the kind from err.
func NewAnalysisError(address string, err error) *AnalysisError {
	return &AnalysisError{
		Address:     address,
		Kind:        KindOf(err),
		Message:     err.Error(),
		Suggestions: append([]string(nil), DefaultSuggestions...),
		Err:         err,
	}
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: %s", e.Address, e.Message)
}

// Unwrap exposes both the cause and the kind sentinel.
func (e *AnalysisError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}
