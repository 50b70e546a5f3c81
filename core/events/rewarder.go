package events

import "math/big"

const (
	// TypeRewarderFilled is emitted when a day's pool receives a deposit.
	TypeRewarderFilled = "rewarder.pool.filled"
	// TypeRewarderClaimed is emitted when a claim pays out.
	TypeRewarderClaimed = "rewarder.claimed"
	// TypeRewarderTokenUpdated is emitted when the admin swaps the reward
	// token used by fill and claim.
	TypeRewarderTokenUpdated = "rewarder.token.updated"
)

// RewarderFilled captures a deposit into a day's reward pool. Total is the
// post-deposit pool size for the day.
type RewarderFilled struct {
	Day    uint64
	Funder [20]byte
	Amount *big.Int
	Total  *big.Int
}

func (RewarderFilled) EventType() string { return TypeRewarderFilled }

// RewarderClaimed captures a successful payout. Cumulative is the attested
// total for (Key, Day); Paid is the delta actually transferred.
type RewarderClaimed struct {
	Day        uint64
	Key        [32]byte
	Recipient  [20]byte
	Cumulative *big.Int
	Paid       *big.Int
}

func (RewarderClaimed) EventType() string { return TypeRewarderClaimed }

// RewarderTokenUpdated captures a reward token swap.
type RewarderTokenUpdated struct {
	Symbol string
}

func (RewarderTokenUpdated) EventType() string { return TypeRewarderTokenUpdated }
