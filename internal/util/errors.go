package util

import "errors"

// Question generation failures. All of them degrade the session start into
// demo mode rather than blocking the user.
var (
	ErrGenerationNoCredentials = errors.New("no AI API credential configured")
	ErrGenerationUpstream      = errors.New("question generation upstream failure")
	ErrGenerationMalformed     = errors.New("question generation returned a malformed response")
)

// Durable store failures.
var (
	ErrStoreValidation  = errors.New("session record rejected by store validation")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Session lifecycle failures.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotInProgress = errors.New("session is not in progress")
	ErrCompletionInFlight   = errors.New("session completion already in progress")
)

// Auth failures.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidLinkToken = errors.New("magic link token is invalid or expired")
	ErrTokenRevoked     = errors.New("token has been signed out")
)
