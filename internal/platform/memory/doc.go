// Package memory provides an in-process implementation of store.UserStore.
// It backs the server when no database URL is configured and is used
// throughout the tests.
package memory
