package models

// Document represents the single text file attached to a user.
// The association is by stored name: <username>_<original name>.
type Document struct {
	OwnerUsername string `db:"username" json:"owner_username"`
	StoredName    string `db:"stored_name" json:"stored_name"`
}
