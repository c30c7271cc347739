// Package store provides the SQLite database that holds song metadata.
//
// Open applies the connection pragmas and the embedded schema, then gates on
// PRAGMA user_version:
//
//   - 0: fresh database, the schema is created and the version stamped
//   - SchemaVersion: nothing to do
//   - greater: ErrSchemaTooNew, the database was written by a newer build
//
// There are no incremental migrations.
//
// The schema carries the constraints the entity metadata cannot express:
// CHECK constraints on identifier formats, dates, popularity ranges and image
// dimensions, plus generated URL columns. Generated columns are not part of
// any entity's table meta and are never written.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Transaction boundaries belong to the caller: WithTx commits on success,
// DryRun always rolls back.
package store
