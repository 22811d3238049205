package domain

import "time"

// Identity is the authenticated end user as seen by the rest of the system.
// It is produced by the session source and is read-only everywhere else.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// User is a row of the identity directory; Identity is derived from it.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Identity returns the read-only identity for u. A nil user yields nil.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return &Identity{ID: u.ID, Name: name, Email: u.Email}
}
