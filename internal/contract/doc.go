// Package contract is the call surface of the two registries.
//
// A call arrives either as a typed Operation or as a wire method name with
// positional arguments. Catalog.Decode turns the latter into the former using
// the compiled contract signatures, and Apply runs an Operation against a
// Backend. Every call yields a Result; contract-level failures (missing
// record, unknown method, malformed arguments) are values, never Go errors.
package contract
