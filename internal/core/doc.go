// Package core is the service layer around the stratigraphic engine.
//
// The engine in package matrix is pure and single-threaded. This package
// makes it usable from concurrent transports (the HTTP API, the CLI) without
// changing its semantics.
//
// # Concurrency
//
// A [Service] owns one [matrix.Engine]. Every mutating command takes the
// write lock; derived views take the read lock and never observe a
// half-applied command. Import decoding runs outside the lock, bounded by an
// [ImportLimiter].
//
// # Tabular format
//
// [DecodeCSV] and [EncodeCSV] read and write the semicolon separated dataset
// format. A UTF-8 byte order mark is stripped on read and written on export;
// ill-formed UTF-8 is replaced rather than rejected.
//
// # Error Handling
//
// Engine errors are mapped to user-facing messages with [MapError]. Each
// category has its own code range for support reference:
//
//   - SCH, VAL, REF, INV: import validation by rule
//   - CMD: rejected interactive commands
//   - FILE, IMP: import transport problems
//
// # Persistence
//
// A [SnapshotStore] keeps the latest dataset snapshot. [Service.StartAutosave]
// persists it whenever the dataset revision moves. Undo history lives in
// memory only.
//
// # Audit Logging
//
// Every accepted command is recorded in a bounded in-memory [AuditLog] with
// severity levels:
//
//   - Low: phase colors
//   - Medium: relation, membership and unit edits, undo and redo
//   - High: imports and deletions
//   - Critical: replacing the dataset with a new one
package core
