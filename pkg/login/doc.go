// Package login authenticates users by email and password.
//
// Passwords are stored as bcrypt hashes (BcryptV1Hasher) and checked against
// PasswordPolicy when they are set. A successful Login returns an access token
// minted by a tokengenerator.TokenGenerator.
package login
