package rewarder

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Verifier authorises claim payouts. The ledger never computes entitlements
// itself; it trusts whatever cumulative amount the verifier attests to. A
// verification failure must leave no trace in state, which the engine
// guarantees by verifying before its first write.
type Verifier interface {
	VerifyClaim(ctx *ClaimContext) error
}

// VerifierFunc adapts a plain function to the Verifier interface. Primarily
// used by tests to substitute fixed-result doubles.
type VerifierFunc func(ctx *ClaimContext) error

func (f VerifierFunc) VerifyClaim(ctx *ClaimContext) error { return f(ctx) }

type claimPayload struct {
	Day        uint64
	Key        [32]byte
	Cumulative *big.Int
	Timestamp  uint64
}

// ClaimDigest computes the message hash the oracle signs: keccak256 over the
// RLP encoding of (day, key, cumulative, timestamp).
func ClaimDigest(day uint64, key [32]byte, cumulative *big.Int, timestamp uint64) [32]byte {
	if cumulative == nil {
		cumulative = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(&claimPayload{
		Day:        day,
		Key:        key,
		Cumulative: cumulative,
		Timestamp:  timestamp,
	})
	if err != nil {
		// The payload is a fixed struct of RLP-encodable fields.
		panic(err)
	}
	var digest [32]byte
	copy(digest[:], ethcrypto.Keccak256(encoded))
	return digest
}

// SignClaim produces a 65-byte recoverable signature over the claim digest.
// Used by the off-chain attester and by tests.
func SignClaim(priv *ecdsa.PrivateKey, day uint64, key [32]byte, cumulative *big.Int, timestamp uint64) ([]byte, error) {
	digest := ClaimDigest(day, key, cumulative, timestamp)
	return ethcrypto.Sign(digest[:], priv)
}

// SignerVerifier validates claim attestations by recovering the secp256k1
// signer from the claim digest and comparing it against the configured oracle
// address. A non-zero TTL additionally rejects attestations whose signing
// timestamp has aged out, mirroring the oracle network's validity window.
type SignerVerifier struct {
	signer [20]byte
	ttl    time.Duration
	nowFn  func() int64
}

// NewSignerVerifier creates a verifier bound to the given oracle signer
// address. ttl of zero disables freshness checking.
func NewSignerVerifier(signer [20]byte, ttl time.Duration) *SignerVerifier {
	return &SignerVerifier{
		signer: signer,
		ttl:    ttl,
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used for TTL checks. Primarily
// intended for tests to provide deterministic timestamps.
func (v *SignerVerifier) SetNowFunc(now func() int64) {
	if now == nil {
		v.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	v.nowFn = now
}

// VerifyClaim implements the Verifier interface.
func (v *SignerVerifier) VerifyClaim(ctx *ClaimContext) error {
	if ctx == nil {
		return fmt.Errorf("%w: nil claim context", ErrInvalidSignature)
	}
	if v.ttl > 0 {
		age := v.nowFn() - int64(ctx.Timestamp)
		if age > int64(v.ttl/time.Second) {
			return ErrStaleAttestation
		}
	}
	if len(ctx.Signature) != ethcrypto.SignatureLength {
		return fmt.Errorf("%w: signature must be %d bytes, got %d",
			ErrInvalidSignature, ethcrypto.SignatureLength, len(ctx.Signature))
	}
	digest := ClaimDigest(ctx.Day, ctx.Key, ctx.Cumulative, ctx.Timestamp)
	pub, err := ethcrypto.SigToPub(digest[:], ctx.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	recovered := ethcrypto.PubkeyToAddress(*pub)
	if !bytes.Equal(recovered[:], v.signer[:]) {
		return ErrInvalidSignature
	}
	return nil
}
