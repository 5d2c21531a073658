// Package store is the SQLite call journal.
//
// Every call the runtime accepts is appended as a row in calls, and its
// result as exactly one row in outcomes. The registries themselves stay in
// memory; the journal exists so their state can be rebuilt by replaying calls
// in order and so past activity can be audited.
//
// # Ordering
//
// All ordering uses the logical seq column, never timestamps. Every query
// that returns multiple rows ends in ORDER BY seq ASC, id COLLATE BINARY ASC
// so reads are identical across runs.
//
// # Encoding
//
// Arguments and results are stored as canonical JSON produced by
// ir.MarshalVerbatim: key order is fixed but strings keep their exact code
// points, so a replayed record equals the one written. IDs are content
// addressed over the NFC form (see ir.CallID, ir.OutcomeID), so rewriting
// the same record is a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: an outcome must reference a journaled call
package store
