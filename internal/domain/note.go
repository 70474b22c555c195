package domain

// Note is a short text owned by a user. Notes are read-only from the
// user endpoint: they are loaded alongside users, never written.
type Note struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Text   string `json:"text"`
	Color  string `json:"color"`
	Tag    int    `json:"tag"`
}
