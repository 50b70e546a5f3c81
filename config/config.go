package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/baseddev11/basedRewarder/crypto"
	"github.com/baseddev11/basedRewarder/native/rewarder"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	ListenRPC string
	// PausedModules lists native modules whose mutators are disabled at boot
	// ("referral", "rewarder").
	PausedModules []string

	DB       DB
	Log      Log
	RPC      RPC
	Referral Referral
	Rewarder Rewarder
	Genesis  Genesis
}

// DB selects and locates the storage backend.
type DB struct {
	Backend string // "memory", "leveldb" or "bolt"
	Path    string
}

// Log configures structured logging output.
type Log struct {
	Env       string
	File      string
	MaxSizeMB int
}

// RPC configures the JSON-RPC front end.
type RPC struct {
	RateLimitPerMin int
}

// Referral configures the referral token registry.
type Referral struct {
	CollateralToken     string
	ActivationThreshold string
}

// Rewarder configures the reward pool engine and its oracle verifier.
type Rewarder struct {
	RewardToken           string
	ClaimKey              string
	OracleSigner          string
	AttestationTTLSeconds int
}

// Genesis seeds state on first boot.
type Genesis struct {
	Admins   []string
	Minters  []string
	Tokens   []GenesisToken
	Balances []GenesisBalance
}

// GenesisToken registers a token symbol at boot.
type GenesisToken struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// GenesisBalance funds an account at boot.
type GenesisBalance struct {
	Address string
	Token   string
	Amount  string
}

// Default returns a configuration suitable for local development.
func Default() Config {
	return Config{
		ListenRPC: ":8645",
		DB:        DB{Backend: "memory"},
		Log:       Log{Env: "dev"},
		RPC:       RPC{RateLimitPerMin: 120},
		Referral:  Referral{CollateralToken: "BASED", ActivationThreshold: "10"},
		Rewarder:  Rewarder{RewardToken: "BASED", ClaimKey: "identity"},
	}
}

// Load reads and validates a TOML configuration file. Fields missing from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenRPC) == "" {
		return fmt.Errorf("config: ListenRPC must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.DB.Backend)) {
	case "memory":
	case "leveldb", "bolt":
		if strings.TrimSpace(c.DB.Path) == "" {
			return fmt.Errorf("config: DB.Path required for backend %q", c.DB.Backend)
		}
	default:
		return fmt.Errorf("config: unknown DB backend %q", c.DB.Backend)
	}
	for _, module := range c.PausedModules {
		switch strings.ToLower(strings.TrimSpace(module)) {
		case "referral", "rewarder":
		default:
			return fmt.Errorf("config: unknown paused module %q", module)
		}
	}
	if _, err := c.ActivationThreshold(); err != nil {
		return err
	}
	if _, err := rewarder.ParseClaimKeyMode(c.Rewarder.ClaimKey); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Rewarder.AttestationTTLSeconds < 0 {
		return fmt.Errorf("config: AttestationTTLSeconds must be non-negative")
	}
	if strings.TrimSpace(c.Rewarder.OracleSigner) != "" {
		if _, err := crypto.DecodeAddress(c.Rewarder.OracleSigner); err != nil {
			return fmt.Errorf("config: OracleSigner: %w", err)
		}
	}
	for _, addr := range append(append([]string{}, c.Genesis.Admins...), c.Genesis.Minters...) {
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("config: genesis role address %q: %w", addr, err)
		}
	}
	for _, balance := range c.Genesis.Balances {
		if _, err := crypto.DecodeAddress(balance.Address); err != nil {
			return fmt.Errorf("config: genesis balance address %q: %w", balance.Address, err)
		}
		if _, ok := new(big.Int).SetString(strings.TrimSpace(balance.Amount), 10); !ok {
			return fmt.Errorf("config: genesis balance amount %q not a decimal integer", balance.Amount)
		}
	}
	return nil
}

// ActivationThreshold parses the referral activation threshold.
func (c Config) ActivationThreshold() (*big.Int, error) {
	raw := strings.TrimSpace(c.Referral.ActivationThreshold)
	if raw == "" {
		return big.NewInt(0), nil
	}
	threshold, ok := new(big.Int).SetString(raw, 10)
	if !ok || threshold.Sign() < 0 {
		return nil, fmt.Errorf("config: ActivationThreshold %q not a non-negative decimal integer", raw)
	}
	return threshold, nil
}

// ClaimKeyMode parses the configured claim keying policy.
func (c Config) ClaimKeyMode() (rewarder.ClaimKeyMode, error) {
	return rewarder.ParseClaimKeyMode(c.Rewarder.ClaimKey)
}
