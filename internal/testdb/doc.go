// Package testdb provides helpers for tests that need a real PostgreSQL
// database. Tests using it are expected to carry the integration build tag
// and are skipped when NOTES_TEST_DATABASE_URL is unset.
package testdb
