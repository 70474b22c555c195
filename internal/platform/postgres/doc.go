// Package postgres provides the PostgreSQL implementation of store.UserStore
// and the embedded schema migrations it depends on.
package postgres
