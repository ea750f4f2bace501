// Package ledger persists composition run history in SQLite.
//
// Every run the workflow starts is inserted in the loaded state and advanced
// through matched, reconciled, planned, and executed, or moved to failed.
// Transitions are enforced in the database with conditional updates so a run
// can never move backwards or leave a terminal state, even when two
// processes share the file. The reconciled slots of each run are stored
// alongside it for `inlay runs` and post-mortem inspection.
//
// Schema changes live in embedded migrations/*.sql files applied in order
// and tracked in schema_migrations. Writes retry briefly when SQLite reports
// the database as busy.
package ledger
