// Package errors provides structured error types for the handler system.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the schema path (system, capability, signal, argument),
// the Go and WIT type names involved, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBroadcast, errors.KindTypeMismatch).
//		Path("click", "x").
//		GoType("string").
//		WitType("u64").
//		Detail("cannot convert argument").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseBroadcast, "signal", "click")
//	err := errors.Duplicate(errors.PhaseDefine, "system", "Input")
//
// All errors implement the standard error interface and support errors.Is/As.
// Lookups and removals in the registry core do not use this package: a stale
// or unknown handle is reported as (nil, false).
package errors
