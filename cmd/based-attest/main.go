// Command based-attest signs reward claim attestations with the oracle key.
// It is the off-chain counterpart of the rewarder's claim verifier: given the
// (day, key, cumulative) tuple a user intends to claim, it emits the signature
// the ledger accepts over rewarder_claim.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/baseddev11/basedRewarder/crypto"
	"github.com/baseddev11/basedRewarder/native/rewarder"
)

const signerKeyEnv = "BASED_ORACLE_KEY"

type attestation struct {
	Day        uint64 `json:"day"`
	Key        string `json:"key"`
	Cumulative string `json:"cumulative"`
	Timestamp  uint64 `json:"sigTimestamp"`
	Signature  string `json:"signature"`
	Signer     string `json:"signer"`
}

func main() {
	day := flag.Uint64("day", 0, "reward pool day index")
	keyHex := flag.String("key", "", "32-byte claim key as 0x-prefixed hex")
	cumulative := flag.String("cumulative", "", "attested cumulative amount as a decimal integer")
	timestamp := flag.Uint64("timestamp", 0, "signing timestamp; defaults to now")
	flag.Parse()

	if err := run(*day, *keyHex, *cumulative, *timestamp); err != nil {
		fmt.Fprintln(os.Stderr, "based-attest:", err)
		os.Exit(1)
	}
}

func run(day uint64, keyHex, cumulativeStr string, timestamp uint64) error {
	raw := strings.TrimSpace(os.Getenv(signerKeyEnv))
	if raw == "" {
		return fmt.Errorf("%s must hold the hex-encoded oracle private key", signerKeyEnv)
	}
	keyBytes, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return fmt.Errorf("decode signer key: %w", err)
	}
	signer, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return fmt.Errorf("load signer key: %w", err)
	}

	key, err := parseClaimKey(keyHex)
	if err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(cumulativeStr), 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("cumulative %q must be a positive decimal integer", cumulativeStr)
	}
	if timestamp == 0 {
		timestamp = uint64(time.Now().Unix())
	}

	sig, err := rewarder.SignClaim(signer.PrivateKey, day, key, amount, timestamp)
	if err != nil {
		return fmt.Errorf("sign claim: %w", err)
	}

	out := attestation{
		Day:        day,
		Key:        "0x" + hex.EncodeToString(key[:]),
		Cumulative: amount.String(),
		Timestamp:  timestamp,
		Signature:  "0x" + hex.EncodeToString(sig),
		Signer:     signer.PubKey().Address().String(),
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func parseClaimKey(s string) ([32]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid claim key: %w", err)
	}
	if len(raw) != 32 {
		return [32]byte{}, fmt.Errorf("claim key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return key, nil
}
