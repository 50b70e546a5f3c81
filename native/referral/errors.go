package referral

import "errors"

var (
	ErrUnauthorized       = errors.New("referral: unauthorized")
	ErrDuplicateCode      = errors.New("referral: code already minted")
	ErrEmptyCode          = errors.New("referral: code must not be empty")
	ErrTokenNotFound      = errors.New("referral: token not found")
	ErrNotOwner           = errors.New("referral: caller does not own token")
	ErrReferrerAlreadySet = errors.New("referral: referrer already set")
	ErrInvalidReferrer    = errors.New("referral: referrer does not exist")
	ErrInactiveReferrer   = errors.New("referral: referrer not active")
	ErrSelfReferral       = errors.New("referral: token cannot refer itself")
	ErrInvalidAmount      = errors.New("referral: amount must be positive")
	ErrInsufficientLocked = errors.New("referral: locked collateral too low")
)
