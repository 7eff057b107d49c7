package model

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Username       – unique, case sensitive login name.
//  PasswordDigest – bcrypt digest of the password; the plain
//                   password is never stored.
//
// Whether a user is an administrator is not stored; it is derived
// from the username when the user logs in and kept in the session.
type User struct {
	ID             uint64 // users.id
	Username       string // users.username
	PasswordDigest string // users.password_digest
}
