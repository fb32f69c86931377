package model

import "time"

// User represents an account row in the `users` table. Passwords are
// stored as bcrypt hashes only; the IsVerified flag flips once after the
// email verification flow completes.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  IsVerified   – whether the email was confirmed.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsVerified   bool      // users.is_verified
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// PersonalData holds the profile fields a user must fill in before
// requesting email verification. One row per user (`personal_data`),
// created empty at registration time.
type PersonalData struct {
	UserID     uint64 // personal_data.user_id
	FirstName  string // personal_data.first_name
	Surname    string // personal_data.surname
	TgNickname string // personal_data.tg_nickname
}

// Complete reports whether all fields required for verification are set.
func (p PersonalData) Complete() bool {
	return p.FirstName != "" && p.Surname != "" && p.TgNickname != ""
}

// VerifyInfo is a one-time email verification record
// (`user_verifications`). Token is an opaque value mailed to the user;
// VerifiedAt stays nil until the token is consumed.
type VerifyInfo struct {
	ID         uint64     // user_verifications.id
	UserID     uint64     // user_verifications.user_id (unique)
	Token      string     // user_verifications.token
	CreatedAt  time.Time  // user_verifications.created_at
	VerifiedAt *time.Time // user_verifications.verified_at (nullable)
}

// PasswordUpdate is an audit row written on every password rotation
// (`password_updates`). Both hashes are stored so the change is
// traceable; plaintext never appears here.
type PasswordUpdate struct {
	ID           uint64    // password_updates.id
	UserID       uint64    // password_updates.user_id
	PreviousHash string    // password_updates.previous_hash
	CurrentHash  string    // password_updates.current_hash
	UpdatedAt    time.Time // password_updates.updated_at
}
