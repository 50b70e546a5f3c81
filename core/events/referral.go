package events

import "math/big"

const (
	// TypeReferralMinted is emitted when a referral token is created, either
	// by the minter role or by a public mint.
	TypeReferralMinted = "referral.token.minted"
	// TypeReferralReferrerSet is emitted when a token's referrer back
	// reference is assigned.
	TypeReferralReferrerSet = "referral.referrer.set"
	// TypeReferralTokenInUse is emitted when an account changes which token
	// it has in use.
	TypeReferralTokenInUse = "referral.token.inuse"
	// TypeReferralTransferred is emitted on ownership transfer of a token.
	TypeReferralTransferred = "referral.token.transferred"
	// TypeReferralCollateralChanged is emitted whenever locked collateral is
	// increased or decreased.
	TypeReferralCollateralChanged = "referral.collateral.changed"
)

// ReferralMinted captures the creation of a referral token.
type ReferralMinted struct {
	ID       [32]byte
	Owner    [20]byte
	Referrer [32]byte
	OG       bool
}

func (ReferralMinted) EventType() string { return TypeReferralMinted }

// ReferralReferrerSet captures a referrer assignment after mint.
type ReferralReferrerSet struct {
	ID       [32]byte
	Referrer [32]byte
}

func (ReferralReferrerSet) EventType() string { return TypeReferralReferrerSet }

// ReferralTokenInUse captures an in-use pointer update for an account.
type ReferralTokenInUse struct {
	Account [20]byte
	ID      [32]byte
}

func (ReferralTokenInUse) EventType() string { return TypeReferralTokenInUse }

// ReferralTransferred captures an ownership transfer.
type ReferralTransferred struct {
	ID   [32]byte
	From [20]byte
	To   [20]byte
}

func (ReferralTransferred) EventType() string { return TypeReferralTransferred }

// ReferralCollateralChanged captures a collateral lock or unlock. Locked is
// the post-change amount.
type ReferralCollateralChanged struct {
	ID       [32]byte
	Owner    [20]byte
	Delta    *big.Int
	Locked   *big.Int
	Increase bool
}

func (ReferralCollateralChanged) EventType() string { return TypeReferralCollateralChanged }
