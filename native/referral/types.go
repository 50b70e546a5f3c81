package referral

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// TokenID is the unique identifier of a referral token, derived from its
// human-chosen code.
type TokenID [32]byte

// IsZero reports whether the identifier is unset.
func (id TokenID) IsZero() bool { return id == TokenID{} }

// TokenIDFromCode derives the token identifier from a referral code. The
// derivation is keccak256 over the code's raw UTF-8 bytes, matching the
// historical id scheme so previously issued codes keep resolving to the same
// identifiers.
func TokenIDFromCode(code string) TokenID {
	var id TokenID
	copy(id[:], ethcrypto.Keccak256([]byte(code)))
	return id
}

// Token is a referral identity. Referrer stays zero until assigned and is
// immutable once set. OG tokens are active regardless of collateral.
type Token struct {
	Owner    [20]byte
	Referrer TokenID
	OG       bool
	Locked   *big.Int
}

// Clone produces a deep copy of the token to protect internal references.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	out := *t
	if t.Locked != nil {
		out.Locked = new(big.Int).Set(t.Locked)
	} else {
		out.Locked = big.NewInt(0)
	}
	return &out
}

func (t *Token) lockedValue() *big.Int {
	if t == nil || t.Locked == nil {
		return big.NewInt(0)
	}
	return t.Locked
}

// VaultAddress returns the module account holding locked collateral.
func VaultAddress() [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256([]byte("referral-collateral-vault"))[12:])
	return addr
}
