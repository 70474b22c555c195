// Package service holds the application logic behind the user endpoint:
// the UserDirectory, which owns user records and credentials, and the
// InputValidator, which checks registration input before it reaches the
// directory.
//
// Both are declared as interfaces so the HTTP layer can be tested against
// mocks. Services depend on store.UserStore and the auth package, never on
// a concrete database.
package service
