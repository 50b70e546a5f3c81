package main

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/baseddev11/basedRewarder/config"
	"github.com/baseddev11/basedRewarder/core/events"
	"github.com/baseddev11/basedRewarder/core/state"
	"github.com/baseddev11/basedRewarder/crypto"
	nativecommon "github.com/baseddev11/basedRewarder/native/common"
	"github.com/baseddev11/basedRewarder/native/referral"
	"github.com/baseddev11/basedRewarder/native/rewarder"
	"github.com/baseddev11/basedRewarder/observability/logging"
	"github.com/baseddev11/basedRewarder/rpc"
	"github.com/baseddev11/basedRewarder/storage"
)

var genesisAppliedKey = []byte("genesis/applied")

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("basedd", "").Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := logging.SetupFile("basedd", cfg.Log.Env, cfg.Log.File, cfg.Log.MaxSizeMB)

	db, err := openDatabase(cfg.DB)
	if err != nil {
		logger.Error("failed to open database", "backend", cfg.DB.Backend, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := applyGenesis(manager, cfg.Genesis); err != nil {
		logger.Error("failed to apply genesis state", "err", err)
		os.Exit(1)
	}

	threshold, err := cfg.ActivationThreshold()
	if err != nil {
		logger.Error("invalid activation threshold", "err", err)
		os.Exit(1)
	}
	referrals := referral.NewRegistry(manager, cfg.Referral.CollateralToken, threshold)

	engine := rewarder.NewEngine(manager, referrals, buildVerifier(cfg, logger))
	keyMode, err := cfg.ClaimKeyMode()
	if err != nil {
		logger.Error("invalid claim key mode", "err", err)
		os.Exit(1)
	}
	engine.SetClaimKeyMode(keyMode)
	if err := engine.InitRewardToken(cfg.Rewarder.RewardToken); err != nil {
		logger.Error("failed to seed reward token", "symbol", cfg.Rewarder.RewardToken, "err", err)
		os.Exit(1)
	}

	emitter := events.NewLogEmitter(logger)
	referrals.SetEmitter(emitter)
	engine.SetEmitter(emitter)

	if len(cfg.PausedModules) > 0 {
		pauses := nativecommon.NewPauseSet(cfg.PausedModules)
		referrals.SetPauses(pauses)
		engine.SetPauses(pauses)
		logger.Warn("modules paused at boot", "modules", cfg.PausedModules)
	}

	server := rpc.NewServer(referrals, engine, logger, cfg.RPC.RateLimitPerMin)
	logger.Info("based rewarder ledger starting",
		"listen", cfg.ListenRPC,
		"claimKey", keyMode.String(),
		"collateralToken", cfg.Referral.CollateralToken,
		"activationThreshold", threshold.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Start(ctx, cfg.ListenRPC); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("rpc server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("based rewarder ledger stopped")
}

func openDatabase(cfg config.DB) (storage.Database, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "leveldb":
		return storage.NewLevelDB(cfg.Path)
	case "bolt":
		return storage.NewBoltDB(cfg.Path)
	default:
		return storage.NewMemDB(), nil
	}
}

func buildVerifier(cfg config.Config, logger interface{ Warn(string, ...any) }) rewarder.Verifier {
	signerStr := strings.TrimSpace(cfg.Rewarder.OracleSigner)
	if signerStr == "" {
		logger.Warn("no oracle signer configured; claims will be rejected")
		return nil
	}
	addr, err := crypto.DecodeAddress(signerStr)
	if err != nil {
		// Validated during config load; unreachable in practice.
		logger.Warn("invalid oracle signer", "err", err)
		return nil
	}
	var signer [20]byte
	copy(signer[:], addr.Bytes())
	ttl := time.Duration(cfg.Rewarder.AttestationTTLSeconds) * time.Second
	return rewarder.NewSignerVerifier(signer, ttl)
}

// applyGenesis registers tokens, grants roles and funds balances on first
// boot. Subsequent boots observe the applied marker and skip funding so
// restarts never double-mint.
func applyGenesis(manager *state.Manager, genesis config.Genesis) error {
	applied := false
	if _, err := manager.KVGet(genesisAppliedKey, &applied); err != nil {
		return err
	}

	for _, token := range genesis.Tokens {
		if manager.TokenExists(token.Symbol) {
			continue
		}
		if err := manager.RegisterToken(token.Symbol, token.Name, token.Decimals); err != nil {
			return err
		}
	}
	for _, admin := range genesis.Admins {
		addr, err := crypto.DecodeAddress(admin)
		if err != nil {
			return err
		}
		if err := manager.SetRole(rewarder.RoleAdmin, addr.Bytes()); err != nil {
			return err
		}
	}
	for _, minter := range genesis.Minters {
		addr, err := crypto.DecodeAddress(minter)
		if err != nil {
			return err
		}
		if err := manager.SetRole(referral.RoleMinter, addr.Bytes()); err != nil {
			return err
		}
	}
	if applied {
		return nil
	}
	for _, balance := range genesis.Balances {
		addr, err := crypto.DecodeAddress(balance.Address)
		if err != nil {
			return err
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(balance.Amount), 10)
		if !ok {
			continue
		}
		if err := manager.Mint(addr.Bytes(), balance.Token, amount); err != nil {
			return err
		}
	}
	return manager.KVPut(genesisAppliedKey, true)
}
