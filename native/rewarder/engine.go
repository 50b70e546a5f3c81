package rewarder

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/baseddev11/basedRewarder/core/events"
	nativecommon "github.com/baseddev11/basedRewarder/native/common"
	"github.com/baseddev11/basedRewarder/native/referral"
)

const (
	// RoleAdmin authorises reward token administration.
	RoleAdmin = "ROLE_REWARD_ADMIN"

	moduleName = "rewarder"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	HasRole(role string, addr []byte) bool
	TokenExists(symbol string) bool
	Transfer(from, to []byte, symbol string, amount *big.Int) error
}

type referralReader interface {
	TokenInUse(addr [20]byte) (referral.TokenID, error)
}

// Engine implements the per-day reward pool ledger and the oracle-authorised
// claim path. Claims are idempotent purely through cumulative-amount
// monotonicity: a repeated claim computes a non-positive delta and fails, so
// no separate replay nonce exists.
type Engine struct {
	st        engineState
	referrals referralReader
	verifier  Verifier
	emitter   events.Emitter
	pauses    nativecommon.PauseView
	vault     [20]byte
	keyMode   ClaimKeyMode
	nowFn     func() int64
}

// NewEngine creates a rewarder engine with a no-op emitter and identity claim
// keying. The referral reader is consulted read-only to resolve claim keys.
func NewEngine(st engineState, referrals referralReader, verifier Verifier) *Engine {
	return &Engine{
		st:        st,
		referrals: referrals,
		verifier:  verifier,
		emitter:   events.NoopEmitter{},
		vault:     VaultAddress(),
		keyMode:   ClaimKeyIdentity,
		nowFn:     func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the administrative pause view consulted by all mutators.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetClaimKeyMode selects whether claims are recorded against the caller's
// in-use referral token or the caller address.
func (e *Engine) SetClaimKeyMode(mode ClaimKeyMode) { e.keyMode = mode }

// ClaimKeyMode returns the active claim keying policy.
func (e *Engine) ClaimKeyMode() ClaimKeyMode { return e.keyMode }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

// CurrentDay returns the pool index for the engine's current time.
func (e *Engine) CurrentDay() uint64 {
	return DayOf(e.nowFn())
}

// RewardToken returns the configured reward token symbol, or
// ErrRewardTokenNotSet when the admin has not configured one yet.
func (e *Engine) RewardToken() (string, error) {
	var symbol string
	ok, err := e.st.KVGet(rewardTokenKey, &symbol)
	if err != nil {
		return "", err
	}
	if !ok || symbol == "" {
		return "", ErrRewardTokenNotSet
	}
	return symbol, nil
}

// SetRewardToken swaps the token used by fill and claim going forward.
// Already-recorded ledger amounts are unaffected. Admin role only.
func (e *Engine) SetRewardToken(caller [20]byte, symbol string) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !e.st.HasRole(RoleAdmin, caller[:]) {
		return fmt.Errorf("%w: admin role required", ErrUnauthorized)
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return fmt.Errorf("%w: empty symbol", ErrTokenNotRegistered)
	}
	if !e.st.TokenExists(normalized) {
		return fmt.Errorf("%w: %s", ErrTokenNotRegistered, normalized)
	}
	if err := e.st.KVPut(rewardTokenKey, normalized); err != nil {
		return err
	}
	e.emit(events.RewarderTokenUpdated{Symbol: normalized})
	return nil
}

// InitRewardToken seeds the reward token from configuration at boot. It only
// ever writes the first value: once a token is recorded in state, later boots
// and later admin updates win over the configured default. An empty symbol is
// a no-op.
func (e *Engine) InitRewardToken(symbol string) error {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return nil
	}
	if _, err := e.RewardToken(); err == nil {
		return nil
	} else if !errors.Is(err, ErrRewardTokenNotSet) {
		return err
	}
	if !e.st.TokenExists(normalized) {
		return fmt.Errorf("%w: %s", ErrTokenNotRegistered, normalized)
	}
	if err := e.st.KVPut(rewardTokenKey, normalized); err != nil {
		return err
	}
	e.emit(events.RewarderTokenUpdated{Symbol: normalized})
	return nil
}

// TotalReward returns the cumulative deposits recorded for the day.
func (e *Engine) TotalReward(day uint64) (*big.Int, error) {
	total := new(big.Int)
	ok, err := e.st.KVGet(totalKey(day), total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// Claimed returns the cumulative amount already paid to key for the day.
func (e *Engine) Claimed(key [32]byte, day uint64) (*big.Int, error) {
	claimed := new(big.Int)
	ok, err := e.st.KVGet(claimedKey(key, day), claimed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return claimed, nil
}

// Fill deposits amount of the reward token into the day's pool. Any caller
// may fund any day, including future ones.
func (e *Engine) Fill(caller [20]byte, day uint64, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	symbol, err := e.RewardToken()
	if err != nil {
		return err
	}
	if err := e.st.Transfer(caller[:], e.vault[:], symbol, amount); err != nil {
		return err
	}
	total, err := e.TotalReward(day)
	if err != nil {
		return err
	}
	total = new(big.Int).Add(total, amount)
	if err := e.st.KVPut(totalKey(day), total); err != nil {
		return err
	}
	e.emit(events.RewarderFilled{
		Day:    day,
		Funder: caller,
		Amount: new(big.Int).Set(amount),
		Total:  total,
	})
	return nil
}

func (e *Engine) resolveClaimKey(caller [20]byte) ([32]byte, error) {
	switch e.keyMode {
	case ClaimKeyIdentity:
		if e.referrals == nil {
			return [32]byte{}, ErrNoTokenInUse
		}
		id, err := e.referrals.TokenInUse(caller)
		if err != nil {
			return [32]byte{}, err
		}
		if id.IsZero() {
			return [32]byte{}, ErrNoTokenInUse
		}
		return [32]byte(id), nil
	case ClaimKeyAddress:
		var key [32]byte
		copy(key[12:], caller[:])
		return key, nil
	default:
		return [32]byte{}, ErrUnknownClaimKey
	}
}

// Claim pays out the delta between the attested cumulative amount and what
// has already been recorded for (key, day). The oracle attestation covers the
// exact tuple being claimed; verification happens before the first state
// write so a rejected claim never mutates the ledger. The payout transfer
// precedes the claimed write so an underfunded vault aborts without recording
// progress; a store failure between those two writes leaves the payout
// unrecorded, a window the key-value store has no batch primitive to close.
func (e *Engine) Claim(caller [20]byte, day uint64, cumulative *big.Int, att *ClaimAttestation) (*big.Int, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if cumulative == nil || cumulative.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.verifier == nil {
		return nil, ErrVerifierNotSet
	}
	symbol, err := e.RewardToken()
	if err != nil {
		return nil, err
	}
	key, err := e.resolveClaimKey(caller)
	if err != nil {
		return nil, err
	}
	claimed, err := e.Claimed(key, day)
	if err != nil {
		return nil, err
	}
	delta := new(big.Int).Sub(cumulative, claimed)
	if delta.Sign() <= 0 {
		return nil, fmt.Errorf("%w: recorded %s, attested %s", ErrNothingToClaim, claimed, cumulative)
	}
	ctx := &ClaimContext{Day: day, Key: key, Cumulative: cumulative}
	if att != nil {
		ctx.Timestamp = att.Timestamp
		ctx.Signature = att.Signature
	}
	if err := e.verifier.VerifyClaim(ctx); err != nil {
		return nil, err
	}
	if err := e.st.Transfer(e.vault[:], caller[:], symbol, delta); err != nil {
		return nil, err
	}
	if err := e.st.KVPut(claimedKey(key, day), cumulative); err != nil {
		return nil, err
	}
	e.emit(events.RewarderClaimed{
		Day:        day,
		Key:        key,
		Recipient:  caller,
		Cumulative: new(big.Int).Set(cumulative),
		Paid:       delta,
	})
	return delta, nil
}
