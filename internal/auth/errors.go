package auth

import "errors"

// Closed set of failure kinds callers branch on with errors.Is. Messages for
// the validation and conflict kinds are safe to show verbatim.
var (
	// ErrInvalidEmail is returned when the email fails the minimal syntactic
	// check (must contain '@').
	ErrInvalidEmail = errors.New("invalid email")

	// ErrPasswordTooShort is returned when the password is under 6 characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrEmailTaken is returned when registration hits an existing email,
	// whether caught by the pre-check or by the storage uniqueness constraint.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Collapsing them is deliberate: distinct messages would leak which
	// accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCorruptDigest is returned when a stored credential digest cannot be
	// parsed. Verification fails closed.
	ErrCorruptDigest = errors.New("corrupt credential digest")

	// ErrTokenExpired is returned when a token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when a token's signature does not verify.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenMalformed is returned when a token is structurally malformed.
	ErrTokenMalformed = errors.New("malformed token")
)
