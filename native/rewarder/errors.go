package rewarder

import "errors"

var (
	ErrUnauthorized       = errors.New("rewarder: unauthorized")
	ErrInvalidAmount      = errors.New("rewarder: amount must be positive")
	ErrRewardTokenNotSet  = errors.New("rewarder: reward token not configured")
	ErrNoTokenInUse       = errors.New("rewarder: caller has no referral token in use")
	ErrNothingToClaim     = errors.New("rewarder: cumulative amount already claimed")
	ErrInvalidSignature   = errors.New("rewarder: invalid oracle signature")
	ErrStaleAttestation   = errors.New("rewarder: oracle attestation expired")
	ErrVerifierNotSet     = errors.New("rewarder: oracle verifier not configured")
	ErrUnknownClaimKey    = errors.New("rewarder: unknown claim key mode")
	ErrTokenNotRegistered = errors.New("rewarder: token not registered")
)
