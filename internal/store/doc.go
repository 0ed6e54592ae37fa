// Package store implements the persistence gateway for the catalog entity
// graph: titles, lookup entities (genres, actors, countries), their join rows,
// seasons and episodes.
//
// A single Store type serves both supported backends. The backend is chosen once
// by Open from configuration: SQLite through modernc.org/sqlite or PostgreSQL
// through a pgx connection pool. Schema lives in goose migrations embedded per
// dialect. Every write is an idempotent upsert keyed by the entity's natural key
// (`INSERT ... ON CONFLICT ... RETURNING id`), so repeating an import mutates rows
// in place instead of duplicating them.
//
// RepairSequences realigns auto-increment counters after rows were inserted
// outside the counter (restores, manual fixes).
package store
