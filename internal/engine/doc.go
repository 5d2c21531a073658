// Package engine runs contract calls against the in-memory registries.
//
// The Runtime is a single writer. Calls made directly with Call or Execute
// are serialised by a mutex; calls submitted with Submit go through a FIFO
// queue drained by one Run loop. Either way every call:
//
//  1. is stamped with the next seq from the logical Clock and the current
//     flow token,
//  2. is written to the journal (if one is attached),
//  3. is decoded against the contract catalog and applied to the registries,
//  4. has its outcome stamped with the next seq and journaled.
//
// Contract failures (missing record, unknown method, bad arguments) are
// returned as a contract.Result. Go errors are reserved for the runtime
// itself: cancelled contexts, journal writes, a stopped queue.
//
// Seq numbers, never wall-clock time, order everything, so a journal replays
// to the same registry state it was recorded from.
package engine
