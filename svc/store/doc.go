// Package store persists delivery records, error records and error
// statistics.
//
// Three backends implement Store: MemoryStore for tests and local runs,
// PostgresStore on a pgx pool with goose migrations embedded in the binary,
// and MongoStore on the v2 driver. All of them share the same semantics:
//
//   - writes are idempotent by (id, createdAt); creating an existing key is a no-op
//   - a transition sets only the attributes it carries and never clears others
//   - a record leaves PENDING once; repeating the same terminal transition is
//     accepted, any other change is ErrInvalidTransition
//   - backend failures are wrapped with ErrStore
package store
