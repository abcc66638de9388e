// Package history keeps a local SQLite ledger of builds and publishes so
// `sitepub history` can show what was built from which revision and what
// ended up on the publish branch.
package history
