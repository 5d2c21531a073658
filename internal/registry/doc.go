// Package registry holds the in-memory record stores behind the two contracts.
//
// An Allocator issues identifiers 0, 1, 2, ... and never reuses one. A Store
// pairs an Allocator with a map from identifier to record. TruthRegistry and
// RealityRegistry are thin typed wrappers over a Store each.
//
// Stores are explicit objects with their own lifecycle (New, Reset); nothing in
// this package is global, so independent runtimes and tests never share state.
package registry
