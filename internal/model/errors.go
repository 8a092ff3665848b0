package model

import "errors"

// Common errors used across the application
var (
	// Request errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidStage = errors.New("invalid stage")

	// Identity errors
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrIdentityNotFound       = errors.New("identity not found")
	ErrExternalAuthFailure    = errors.New("external auth failure")
	ErrOAuthStateInvalid      = errors.New("oauth state is invalid or expired")
	ErrWalletNotLinked        = errors.New("no wallet linked to identity")

	// Ingestion errors
	ErrSourceUnavailable = errors.New("source text unavailable")
	ErrGenerationFailed  = errors.New("question generation failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has ended")
	ErrSessionNotEnded = errors.New("session has not ended")

	// Admission errors
	ErrCapacityExceeded = errors.New("session is at capacity")
	ErrAlreadyJoined    = errors.New("identity has already joined")

	// Submission errors
	ErrNotAParticipant  = errors.New("identity is not a participant")
	ErrAlreadySubmitted = errors.New("stage already submitted")

	// Reward errors
	ErrNotEligible          = errors.New("identity is not eligible for reward")
	ErrRewardAlreadyClaimed = errors.New("reward already claimed")
	ErrRewardClaimNotFound  = errors.New("reward claim not found")
	ErrMintAmountOverCap    = errors.New("mint amount over cap")
	ErrMintingPaused        = errors.New("minting is paused")
	ErrMintFailed           = errors.New("mint failed")

	// Storage errors
	ErrStorageFailure = errors.New("storage failure")
)
