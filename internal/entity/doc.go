// Package entity implements the entity-relational metadata framework.
//
// An entity type describes one table: its name, its columns (meta.TableMeta),
// its primary key and its foreign keys. Types are introduced through a
// Registry, which validates the declaration once, freezes it, and classifies
// it into a relational Shape:
//
//   - ShapeSingleKey    exactly one primary-key column
//   - ShapeDependent    one relationship whose columns are part of the key
//   - ShapeDependentRow dependent, with at least one key column of its own
//   - ShapeExtension    dependent, key columns are exactly the parent's
//   - ShapeAssociation  two single-column relationships that form the key
//
// # Declaration lifecycle
//
// The four metadata pieces (table name, table meta, primary key, foreign keys)
// are all-or-nothing. A declaration with none of them is abstract: it can be
// extended but never instantiated. A declaration with all four is concrete.
// Anything in between is a declaration error. Once registered, the pieces and
// the bookkeeping attributes are frozen: SetAttr and DeleteAttr refuse them.
//
// # Call-time operations
//
// Instances hold a sparse value per column. Get and Set check every value
// against the column's (type, nullability) contract. Insert, Patch, Upsert,
// Exists and Fetch generate parameterized SQL from the frozen metadata and run
// exactly one statement on a caller-supplied Execer (Upsert runs at most two).
// The framework never begins or commits transactions.
//
// Declaration errors are *DeclarationError values with E2xx codes. Call-time
// errors wrap the Err* sentinels and are matched with errors.Is.
package entity
