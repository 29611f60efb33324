package models

// User represents a registered account
type User struct {
	ID        int64   `db:"id" json:"id"`
	Username  string  `db:"username" json:"username"`
	Password  string  `db:"password" json:"-"` // Never serialize the stored password
	Firstname string  `db:"firstname" json:"firstname"`
	Lastname  string  `db:"lastname" json:"lastname"`
	Email     string  `db:"email" json:"email"`
	Address   *string `db:"address" json:"address,omitempty"`
}
