package models

// Sender is a resolved message author.
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Phone     string
}
