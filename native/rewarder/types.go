package rewarder

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SecondsPerDay fixes the epoch length used to index reward pools.
const SecondsPerDay = 86400

// DayOf returns the pool index for a unix timestamp.
func DayOf(unix int64) uint64 {
	if unix < 0 {
		return 0
	}
	return uint64(unix) / SecondsPerDay
}

// ClaimKeyMode selects which identity a claim is recorded against.
type ClaimKeyMode uint8

const (
	// ClaimKeyIdentity records claims against the caller's in-use referral
	// token.
	ClaimKeyIdentity ClaimKeyMode = iota
	// ClaimKeyAddress records claims against the caller address itself.
	ClaimKeyAddress
)

func (m ClaimKeyMode) String() string {
	switch m {
	case ClaimKeyIdentity:
		return "identity"
	case ClaimKeyAddress:
		return "address"
	default:
		return "unknown"
	}
}

// ParseClaimKeyMode resolves a configuration string into a claim key mode.
func ParseClaimKeyMode(s string) (ClaimKeyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity":
		return ClaimKeyIdentity, nil
	case "address":
		return ClaimKeyAddress, nil
	default:
		return ClaimKeyIdentity, fmt.Errorf("%w: %q", ErrUnknownClaimKey, s)
	}
}

// ClaimAttestation carries the oracle proof artifacts submitted with a claim.
// The attested day, key and cumulative amount come from the claim request
// itself; only the signing timestamp and signature travel separately.
type ClaimAttestation struct {
	Timestamp uint64
	Signature []byte
}

// ClaimContext is the message handed to the oracle verifier. It binds the
// attestation to the exact (day, key, cumulative) tuple being claimed.
type ClaimContext struct {
	Day        uint64
	Key        [32]byte
	Cumulative *big.Int
	Timestamp  uint64
	Signature  []byte
}

// VaultAddress returns the module account holding pooled reward tokens.
func VaultAddress() [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256([]byte("rewarder-pool-vault"))[12:])
	return addr
}

var (
	totalKeyPrefix   = []byte("rewarder/total/")
	claimedKeyPrefix = []byte("rewarder/claimed/")
	rewardTokenKey   = []byte("rewarder/token")
)

func totalKey(day uint64) []byte {
	buf := make([]byte, len(totalKeyPrefix)+8)
	copy(buf, totalKeyPrefix)
	binary.BigEndian.PutUint64(buf[len(totalKeyPrefix):], day)
	return buf
}

func claimedKey(key [32]byte, day uint64) []byte {
	buf := make([]byte, len(claimedKeyPrefix)+len(key)+8)
	copy(buf, claimedKeyPrefix)
	copy(buf[len(claimedKeyPrefix):], key[:])
	binary.BigEndian.PutUint64(buf[len(claimedKeyPrefix)+len(key):], day)
	return buf
}
