// Package wasmerr defines the error taxonomy produced at the wasm engine
// boundary and re-mapped by the runtime cache: a small Kind enum plus a
// message and an optional cause, so callers can errors.Is/As against a
// stable kind instead of string-matching messages.
package wasmerr

import "fmt"

// Kind classifies a WasmError.
type Kind int

const (
	// KindCodeNotFound means the engine could not locate the requested
	// code (distinct from InvalidCode, which is a runtime-cache level
	// concern layered over this).
	KindCodeNotFound Kind = iota
	// KindInstantiation means the guest panicked during a call, or its
	// result could not be decoded.
	KindInstantiation
	// KindInvalidMemoryReference means the module instance has no
	// exported "memory".
	KindInvalidMemoryReference
)

func (k Kind) String() string {
	switch k {
	case KindCodeNotFound:
		return "CodeNotFound"
	case KindInstantiation:
		return "Instantiation"
	case KindInvalidMemoryReference:
		return "InvalidMemoryReference"
	default:
		return "Unknown"
	}
}

// WasmError is the error type produced by the engine adapter and consumed
// by the runtime cache.
type WasmError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *WasmError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WasmError) Unwrap() error {
	return e.Cause
}

// CodeNotFound builds a KindCodeNotFound error.
func CodeNotFound(message string) *WasmError {
	return &WasmError{Kind: KindCodeNotFound, Message: message}
}

// Instantiation builds a KindInstantiation error.
func Instantiation(message string) *WasmError {
	return &WasmError{Kind: KindInstantiation, Message: message}
}

// InstantiationWrap builds a KindInstantiation error wrapping cause.
func InstantiationWrap(message string, cause error) *WasmError {
	return &WasmError{Kind: KindInstantiation, Message: message, Cause: cause}
}

// InvalidMemoryReference builds a KindInvalidMemoryReference error.
func InvalidMemoryReference(message string) *WasmError {
	return &WasmError{Kind: KindInvalidMemoryReference, Message: message}
}

// Is supports errors.Is comparisons between two *WasmError by Kind alone,
// so callers can write errors.Is(err, wasmerr.CodeNotFound("")) without
// caring about the message.
func (e *WasmError) Is(target error) bool {
	other, ok := target.(*WasmError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
