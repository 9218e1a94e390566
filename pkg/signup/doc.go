// Package signup registers users by invitation.
//
// An administrator calls RegisterUser with the new user's name, email and
// roles. The user, the role associations and a PENDING registration token are
// written in one transaction, after re-checking in the role store that the
// caller holds ADMIN. Once committed, an invitation carrying
// <origin>/register/<token> is sent through the notification manager.
//
// The invited user calls CompleteRegistration with the token and a password.
// The token moves to USED, or to EXPIRED when it is older than the
// configured TTL.
package signup
