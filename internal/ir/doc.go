// Package ir defines the value and record types shared by every other ontic package.
//
// ir imports nothing internal. Values are a sealed set (Null, Str, Int, Bool,
// List, Object) with no floating point representation, so that call arguments
// and results hash identically across runs.
//
// Journal records (Call, Outcome) are content addressed: their IDs are SHA-256
// digests of RFC 8785 canonical JSON with a domain prefix. See hash.go.
package ir
