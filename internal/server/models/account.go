// Package models defines server-side data models persisted in the database.
package models

// Account is a registered user. PasswordHash is always set; accounts
// created through federated sign-in carry an unusable random hash.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	// Tasks is filled only when the caller asks for the account with its
	// tasks.
	Tasks []*Task
}

// AccountUpdate carries the profile fields to change. Nil fields are left
// untouched.
type AccountUpdate struct {
	Email    *string
	Password *string
}

// Empty reports whether no field is set.
func (u AccountUpdate) Empty() bool {
	return u.Email == nil && u.Password == nil
}
