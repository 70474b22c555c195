// Package domain contains the core business entities of the notes
// application: users, their notes, and validation outcomes. It has no
// dependencies on infrastructure or delivery mechanisms.
package domain
