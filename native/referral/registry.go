package referral

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/baseddev11/basedRewarder/core/events"
	nativecommon "github.com/baseddev11/basedRewarder/native/common"
)

const (
	// RoleMinter authorises privileged OG mints.
	RoleMinter = "ROLE_REFERRAL_MINTER"

	moduleName = "referral"
)

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	HasRole(role string, addr []byte) bool
	Transfer(from, to []byte, symbol string, amount *big.Int) error
}

// Registry owns the referral token lifecycle: minting, the referrer graph,
// the per-account in-use pointer and the collateral lock that gates
// activation. Activation is always derived from current state, never stored.
type Registry struct {
	st        registryState
	emitter   events.Emitter
	pauses    nativecommon.PauseView
	vault     [20]byte
	symbol    string
	threshold *big.Int
}

// NewRegistry creates a registry backed by the provided state manager. The
// collateral token symbol and activation threshold are fixed for the lifetime
// of the registry, mirroring construction-time configuration.
func NewRegistry(st registryState, collateralSymbol string, activationThreshold *big.Int) *Registry {
	threshold := big.NewInt(0)
	if activationThreshold != nil {
		threshold = new(big.Int).Set(activationThreshold)
	}
	return &Registry{
		st:        st,
		emitter:   events.NoopEmitter{},
		vault:     VaultAddress(),
		symbol:    strings.ToUpper(strings.TrimSpace(collateralSymbol)),
		threshold: threshold,
	}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPauses wires the administrative pause view consulted by all mutators.
func (r *Registry) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

// ActivationThreshold returns the collateral amount required for a non-OG
// token to count as an active referrer.
func (r *Registry) ActivationThreshold() *big.Int {
	return new(big.Int).Set(r.threshold)
}

// CollateralToken returns the token symbol locked for activation.
func (r *Registry) CollateralToken() string { return r.symbol }

func (r *Registry) emit(event events.Event) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(event)
}

func (r *Registry) loadToken(id TokenID) (*Token, bool, error) {
	token := new(Token)
	ok, err := r.st.KVGet(tokenKey(id), token)
	if err != nil || !ok {
		return nil, false, err
	}
	if token.Locked == nil {
		token.Locked = big.NewInt(0)
	}
	return token, true, nil
}

func (r *Registry) storeToken(id TokenID, token *Token) error {
	if token.Locked == nil {
		token.Locked = big.NewInt(0)
	}
	return r.st.KVPut(tokenKey(id), token)
}

func (r *Registry) ownerCount(addr [20]byte) (uint64, error) {
	var count uint64
	if _, err := r.st.KVGet(countKey(addr), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Registry) setOwnerCount(addr [20]byte, count uint64) error {
	return r.st.KVPut(countKey(addr), count)
}

// TokenInUse returns the token the account currently has in use, or the zero
// id when none is set.
func (r *Registry) TokenInUse(addr [20]byte) (TokenID, error) {
	var id TokenID
	if _, err := r.st.KVGet(inUseKey(addr), &id); err != nil {
		return TokenID{}, err
	}
	return id, nil
}

// OwnerOf resolves the current owner of the token.
func (r *Registry) OwnerOf(id TokenID) ([20]byte, error) {
	token, ok, err := r.loadToken(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrTokenNotFound
	}
	return token.Owner, nil
}

// BalanceOf returns how many referral tokens the account owns.
func (r *Registry) BalanceOf(addr [20]byte) (uint64, error) {
	return r.ownerCount(addr)
}

// Token retrieves the stored referral token, if any.
func (r *Registry) Token(id TokenID) (*Token, bool) {
	token, ok, err := r.loadToken(id)
	if err != nil || !ok {
		return nil, false
	}
	return token.Clone(), true
}

// Referrer returns the referrer back-reference of the token. Zero when unset.
func (r *Registry) Referrer(id TokenID) (TokenID, error) {
	token, ok, err := r.loadToken(id)
	if err != nil {
		return TokenID{}, err
	}
	if !ok {
		return TokenID{}, ErrTokenNotFound
	}
	return token.Referrer, nil
}

// Locked returns the collateral currently locked against the token.
func (r *Registry) Locked(id TokenID) (*big.Int, error) {
	token, ok, err := r.loadToken(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return new(big.Int).Set(token.lockedValue()), nil
}

// IsActiveReferrer reports whether the token may act as a referrer: OG tokens
// always, others when their locked collateral meets the threshold. The state
// is recomputed on every read so collateral changes are observable
// immediately.
func (r *Registry) IsActiveReferrer(id TokenID) (bool, error) {
	token, ok, err := r.loadToken(id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrTokenNotFound
	}
	return r.isActive(token), nil
}

func (r *Registry) isActive(token *Token) bool {
	if token == nil {
		return false
	}
	if token.OG {
		return true
	}
	return token.lockedValue().Cmp(r.threshold) >= 0
}

// OGMint creates an always-active token on behalf of owner. Restricted to the
// minter role.
func (r *Registry) OGMint(caller [20]byte, owner [20]byte, code string) (TokenID, error) {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return TokenID{}, err
	}
	if !r.st.HasRole(RoleMinter, caller[:]) {
		return TokenID{}, fmt.Errorf("%w: minter role required", ErrUnauthorized)
	}
	return r.mint(owner, code, TokenID{}, true)
}

// SafeMint creates an inactive token owned by the caller. The token becomes
// an eligible referrer once enough collateral is locked.
func (r *Registry) SafeMint(caller [20]byte, code string) (TokenID, error) {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return TokenID{}, err
	}
	return r.mint(caller, code, TokenID{}, false)
}

// SafeMintWithReferrer mints like SafeMint and additionally records the
// referrer, which must exist and be active at mint time.
func (r *Registry) SafeMintWithReferrer(caller [20]byte, code string, referrer TokenID) (TokenID, error) {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return TokenID{}, err
	}
	if err := r.requireActiveReferrer(referrer); err != nil {
		return TokenID{}, err
	}
	return r.mint(caller, code, referrer, false)
}

func (r *Registry) requireActiveReferrer(referrer TokenID) error {
	if referrer.IsZero() {
		return ErrInvalidReferrer
	}
	token, ok, err := r.loadToken(referrer)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidReferrer
	}
	if !r.isActive(token) {
		return ErrInactiveReferrer
	}
	return nil
}

func (r *Registry) mint(owner [20]byte, code string, referrer TokenID, og bool) (TokenID, error) {
	if strings.TrimSpace(code) == "" {
		return TokenID{}, ErrEmptyCode
	}
	id := TokenIDFromCode(code)
	if _, exists, err := r.loadToken(id); err != nil {
		return TokenID{}, err
	} else if exists {
		return TokenID{}, fmt.Errorf("%w: %q", ErrDuplicateCode, code)
	}
	token := &Token{Owner: owner, Referrer: referrer, OG: og, Locked: big.NewInt(0)}
	if err := r.storeToken(id, token); err != nil {
		return TokenID{}, err
	}
	count, err := r.ownerCount(owner)
	if err != nil {
		return TokenID{}, err
	}
	if err := r.setOwnerCount(owner, count+1); err != nil {
		return TokenID{}, err
	}
	// A freshly minted token becomes the owner's in-use token only when the
	// owner has none yet; an existing selection is never displaced.
	inUse, err := r.TokenInUse(owner)
	if err != nil {
		return TokenID{}, err
	}
	if inUse.IsZero() {
		if err := r.st.KVPut(inUseKey(owner), id); err != nil {
			return TokenID{}, err
		}
		r.emit(events.ReferralTokenInUse{Account: owner, ID: [32]byte(id)})
	}
	r.emit(events.ReferralMinted{ID: [32]byte(id), Owner: owner, Referrer: [32]byte(referrer), OG: og})
	return id, nil
}

// SetReferrer assigns the referrer of an owned token. The assignment is
// write-once: any second attempt fails regardless of the new referrer.
func (r *Registry) SetReferrer(caller [20]byte, id TokenID, referrer TokenID) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	token, ok, err := r.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if token.Owner != caller {
		return ErrNotOwner
	}
	if !token.Referrer.IsZero() {
		return ErrReferrerAlreadySet
	}
	if referrer == id {
		return ErrSelfReferral
	}
	if err := r.requireActiveReferrer(referrer); err != nil {
		return err
	}
	token.Referrer = referrer
	if err := r.storeToken(id, token); err != nil {
		return err
	}
	r.emit(events.ReferralReferrerSet{ID: [32]byte(id), Referrer: [32]byte(referrer)})
	return nil
}

// SetTokenInUse marks an owned token as the caller's in-use token.
func (r *Registry) SetTokenInUse(caller [20]byte, id TokenID) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	token, ok, err := r.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if token.Owner != caller {
		return ErrNotOwner
	}
	if err := r.st.KVPut(inUseKey(caller), id); err != nil {
		return err
	}
	r.emit(events.ReferralTokenInUse{Account: caller, ID: [32]byte(id)})
	return nil
}

// Transfer moves ownership of an owned token to another account. The sender's
// in-use pointer is cleared when it referenced the moved token; the receiver's
// pointer is never touched.
func (r *Registry) Transfer(caller [20]byte, to [20]byte, id TokenID) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	token, ok, err := r.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if token.Owner != caller {
		return ErrNotOwner
	}
	token.Owner = to
	if err := r.storeToken(id, token); err != nil {
		return err
	}
	fromCount, err := r.ownerCount(caller)
	if err != nil {
		return err
	}
	if fromCount > 0 {
		if err := r.setOwnerCount(caller, fromCount-1); err != nil {
			return err
		}
	}
	toCount, err := r.ownerCount(to)
	if err != nil {
		return err
	}
	if err := r.setOwnerCount(to, toCount+1); err != nil {
		return err
	}
	inUse, err := r.TokenInUse(caller)
	if err != nil {
		return err
	}
	if inUse == id {
		if err := r.st.KVPut(inUseKey(caller), TokenID{}); err != nil {
			return err
		}
		r.emit(events.ReferralTokenInUse{Account: caller, ID: [32]byte{}})
	}
	r.emit(events.ReferralTransferred{ID: [32]byte(id), From: caller, To: to})
	return nil
}

// IncreaseLockedCollateral pulls amount of the collateral token from the
// caller into the module vault and records it against the token. Activation
// is derived lazily on the next read.
func (r *Registry) IncreaseLockedCollateral(caller [20]byte, id TokenID, amount *big.Int) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	token, ok, err := r.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if token.Owner != caller {
		return ErrNotOwner
	}
	if err := r.st.Transfer(caller[:], r.vault[:], r.symbol, amount); err != nil {
		return err
	}
	token.Locked = new(big.Int).Add(token.lockedValue(), amount)
	if err := r.storeToken(id, token); err != nil {
		return err
	}
	r.emit(events.ReferralCollateralChanged{
		ID:       [32]byte(id),
		Owner:    caller,
		Delta:    new(big.Int).Set(amount),
		Locked:   new(big.Int).Set(token.Locked),
		Increase: true,
	})
	return nil
}

// DecreaseLockedCollateral releases amount of locked collateral back to the
// caller. Dropping below the activation threshold deactivates the token on
// the next read.
func (r *Registry) DecreaseLockedCollateral(caller [20]byte, id TokenID, amount *big.Int) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	token, ok, err := r.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if token.Owner != caller {
		return ErrNotOwner
	}
	if token.lockedValue().Cmp(amount) < 0 {
		return ErrInsufficientLocked
	}
	if err := r.st.Transfer(r.vault[:], caller[:], r.symbol, amount); err != nil {
		return err
	}
	token.Locked = new(big.Int).Sub(token.lockedValue(), amount)
	if err := r.storeToken(id, token); err != nil {
		return err
	}
	r.emit(events.ReferralCollateralChanged{
		ID:       [32]byte(id),
		Owner:    caller,
		Delta:    new(big.Int).Set(amount),
		Locked:   new(big.Int).Set(token.Locked),
		Increase: false,
	})
	return nil
}
