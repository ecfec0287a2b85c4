// Package jsondb implements a schema-enforced record store held as a single
// in-memory document.
//
// # Overview
//
// A [Database] owns an ordered set of named [Table] values. Each table has a
// [Schema] whose first column is always the identity column OBJECT_ID
// (INTEGER), followed by the caller's columns in declaration order. Rows are
// positionally aligned with the schema and every value carries its [Type], so
// validation is a tag comparison rather than runtime type inspection.
//
// # Operations
//
// [Database.CreateTable], [Database.Insert], [Database.UpdateOne],
// [Database.DeleteOne] and [Database.DeleteMany] mutate the document and return
// a [Result]. Per-item rejections (a row with a mismatching value, an invalid
// column type) are recorded in [Result.Rejected] and do not abort the
// operation. Conditions that make the whole operation meaningless (unknown
// table or column) are returned as errors and leave the document untouched.
//
// [Database.FetchOne] and [Database.FetchAll] return projected [Record] values
// in row order.
//
// # Concurrency
//
// A Database is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access themselves.
//
// # File Format
//
// The document marshals to a JSON object keyed by table name. Each table is an
// object with a "<TABLE_SCHEMA>" key (ordered column name to type tag) and a
// "<TABLE_ROW>" key (list of value arrays aligned with the schema).
package jsondb
