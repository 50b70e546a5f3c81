package rewarder_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/baseddev11/basedRewarder/core/state"
	nativecommon "github.com/baseddev11/basedRewarder/native/common"
	"github.com/baseddev11/basedRewarder/native/referral"
	"github.com/baseddev11/basedRewarder/native/rewarder"
	"github.com/baseddev11/basedRewarder/storage"
)

const rewardSymbol = "BASED"

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

type fixture struct {
	manager  *state.Manager
	registry *referral.Registry
	engine   *rewarder.Engine
	admin    [20]byte
}

func acceptAll(_ *rewarder.ClaimContext) error { return nil }

func newFixture(t *testing.T, verifier rewarder.Verifier) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	if err := manager.RegisterToken(rewardSymbol, "Based Token", 18); err != nil {
		t.Fatalf("register token: %v", err)
	}
	registry := referral.NewRegistry(manager, rewardSymbol, big.NewInt(10))
	engine := rewarder.NewEngine(manager, registry, verifier)

	admin := addr(0xAD)
	if err := manager.SetRole(rewarder.RoleAdmin, admin[:]); err != nil {
		t.Fatalf("set admin role: %v", err)
	}
	if err := engine.SetRewardToken(admin, rewardSymbol); err != nil {
		t.Fatalf("set reward token: %v", err)
	}
	return &fixture{manager: manager, registry: registry, engine: engine, admin: admin}
}

func (f *fixture) fund(t *testing.T, account [20]byte, amount int64) {
	t.Helper()
	if err := f.manager.Mint(account[:], rewardSymbol, big.NewInt(amount)); err != nil {
		t.Fatalf("fund account: %v", err)
	}
}

// mintInUse mints a referral token for the account so identity-mode claims can
// resolve a claim key.
func (f *fixture) mintInUse(t *testing.T, account [20]byte, code string) referral.TokenID {
	t.Helper()
	id, err := f.registry.SafeMint(account, code)
	if err != nil {
		t.Fatalf("mint referral token: %v", err)
	}
	return id
}

func TestSetRewardTokenRequiresAdmin(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	if err := f.engine.SetRewardToken(addr(0x01), rewardSymbol); !errors.Is(err, rewarder.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestSetRewardTokenRejectsUnknownSymbol(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	if err := f.engine.SetRewardToken(f.admin, "NOPE"); !errors.Is(err, rewarder.ErrTokenNotRegistered) {
		t.Fatalf("expected token-not-registered error, got %v", err)
	}
}

func TestFillRequiresRewardToken(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	engine := rewarder.NewEngine(manager, nil, rewarder.VerifierFunc(acceptAll))
	if err := engine.Fill(addr(0x01), 7, big.NewInt(10)); !errors.Is(err, rewarder.ErrRewardTokenNotSet) {
		t.Fatalf("expected reward-token-not-set error, got %v", err)
	}
}

func TestInitRewardTokenSeedsOnlyWhenUnset(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	if err := manager.RegisterToken(rewardSymbol, "Based Token", 18); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := manager.RegisterToken("OTHER", "Other Token", 18); err != nil {
		t.Fatalf("register token: %v", err)
	}
	engine := rewarder.NewEngine(manager, nil, rewarder.VerifierFunc(acceptAll))

	if _, err := engine.RewardToken(); !errors.Is(err, rewarder.ErrRewardTokenNotSet) {
		t.Fatalf("expected unset reward token, got %v", err)
	}
	if err := engine.InitRewardToken(rewardSymbol); err != nil {
		t.Fatalf("seed: %v", err)
	}
	symbol, err := engine.RewardToken()
	if err != nil || symbol != rewardSymbol {
		t.Fatalf("expected %s, got %q (err %v)", rewardSymbol, symbol, err)
	}
	// A second boot with a different configured symbol must not override the
	// recorded token.
	if err := engine.InitRewardToken("OTHER"); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	symbol, err = engine.RewardToken()
	if err != nil || symbol != rewardSymbol {
		t.Fatalf("seed displaced recorded token: %q (err %v)", symbol, err)
	}
	// Empty symbol is a no-op, not an error.
	if err := engine.InitRewardToken(""); err != nil {
		t.Fatalf("empty seed: %v", err)
	}
}

func TestInitRewardTokenRejectsUnknownSymbol(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	engine := rewarder.NewEngine(manager, nil, rewarder.VerifierFunc(acceptAll))
	if err := engine.InitRewardToken("NOPE"); !errors.Is(err, rewarder.ErrTokenNotRegistered) {
		t.Fatalf("expected token-not-registered error, got %v", err)
	}
}

func TestMutatorsRejectWhenPaused(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	f.engine.SetPauses(nativecommon.NewPauseSet([]string{"rewarder"}))

	if err := f.engine.Fill(addr(0x01), 7, big.NewInt(10)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused error from fill, got %v", err)
	}
	if _, err := f.engine.Claim(addr(0x01), 7, big.NewInt(10), &rewarder.ClaimAttestation{}); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused error from claim, got %v", err)
	}
	if err := f.engine.SetRewardToken(f.admin, rewardSymbol); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused error from setRewardToken, got %v", err)
	}
	// Pausing the other module leaves this one open.
	f.engine.SetPauses(nativecommon.NewPauseSet([]string{"referral"}))
	f.fund(t, addr(0x01), 100)
	if err := f.engine.Fill(addr(0x01), 7, big.NewInt(10)); err != nil {
		t.Fatalf("fill with other module paused: %v", err)
	}
}

func TestFillAccumulatesPerDay(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	funder := addr(0x01)
	f.fund(t, funder, 1000)

	if err := f.engine.Fill(funder, 7, big.NewInt(100)); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := f.engine.Fill(funder, 7, big.NewInt(50)); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := f.engine.Fill(funder, 8, big.NewInt(25)); err != nil {
		t.Fatalf("fill day 8: %v", err)
	}

	total, err := f.engine.TotalReward(7)
	if err != nil || total.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected day 7 total 150, got %s (err %v)", total, err)
	}
	total, err = f.engine.TotalReward(8)
	if err != nil || total.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("expected day 8 total 25, got %s (err %v)", total, err)
	}
	total, err = f.engine.TotalReward(9)
	if err != nil || total.Sign() != 0 {
		t.Fatalf("expected empty day total 0, got %s (err %v)", total, err)
	}

	vault := rewarder.VaultAddress()
	vaultBalance, err := f.manager.Balance(vault[:], rewardSymbol)
	if err != nil || vaultBalance.Cmp(big.NewInt(175)) != 0 {
		t.Fatalf("expected vault balance 175, got %s (err %v)", vaultBalance, err)
	}
}

func TestFillRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	if err := f.engine.Fill(addr(0x01), 7, big.NewInt(0)); !errors.Is(err, rewarder.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
	if err := f.engine.Fill(addr(0x01), 7, nil); !errors.Is(err, rewarder.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
}

func TestClaimPaysDeltaAndRecordsCumulative(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	funder := addr(0x01)
	user := addr(0x02)
	f.fund(t, funder, 1000)
	if err := f.engine.Fill(funder, 7, big.NewInt(500)); err != nil {
		t.Fatalf("fill: %v", err)
	}
	id := f.mintInUse(t, user, "user1Code")

	paid, err := f.engine.Claim(user, 7, big.NewInt(120), &rewarder.ClaimAttestation{})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("expected first claim to pay 120, got %s", paid)
	}
	claimed, err := f.engine.Claimed([32]byte(id), 7)
	if err != nil || claimed.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("expected claimed 120, got %s (err %v)", claimed, err)
	}

	// Replaying the identical attestation computes a zero delta and fails.
	if _, err := f.engine.Claim(user, 7, big.NewInt(120), &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrNothingToClaim) {
		t.Fatalf("expected nothing-to-claim error, got %v", err)
	}

	// A higher cumulative pays out only the difference.
	paid, err = f.engine.Claim(user, 7, big.NewInt(200), &rewarder.ClaimAttestation{})
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if paid.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("expected delta payout 80, got %s", paid)
	}
	balance, err := f.manager.Balance(user[:], rewardSymbol)
	if err != nil || balance.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected user balance 200, got %s (err %v)", balance, err)
	}
}

func TestClaimDaysAreIndependent(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	funder := addr(0x01)
	user := addr(0x02)
	f.fund(t, funder, 1000)
	for day := uint64(7); day <= 8; day++ {
		if err := f.engine.Fill(funder, day, big.NewInt(100)); err != nil {
			t.Fatalf("fill day %d: %v", day, err)
		}
	}
	id := f.mintInUse(t, user, "user1Code")

	if _, err := f.engine.Claim(user, 7, big.NewInt(60), &rewarder.ClaimAttestation{}); err != nil {
		t.Fatalf("claim day 7: %v", err)
	}
	// The same cumulative amount on a different day is a fresh claim.
	paid, err := f.engine.Claim(user, 8, big.NewInt(60), &rewarder.ClaimAttestation{})
	if err != nil {
		t.Fatalf("claim day 8: %v", err)
	}
	if paid.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected day 8 payout 60, got %s", paid)
	}
	for day := uint64(7); day <= 8; day++ {
		claimed, err := f.engine.Claimed([32]byte(id), day)
		if err != nil || claimed.Cmp(big.NewInt(60)) != 0 {
			t.Fatalf("expected day %d claimed 60, got %s (err %v)", day, claimed, err)
		}
	}
}

func TestClaimRejectedVerifierLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(func(_ *rewarder.ClaimContext) error {
		return rewarder.ErrInvalidSignature
	}))
	funder := addr(0x01)
	user := addr(0x02)
	f.fund(t, funder, 1000)
	if err := f.engine.Fill(funder, 7, big.NewInt(500)); err != nil {
		t.Fatalf("fill: %v", err)
	}
	id := f.mintInUse(t, user, "user1Code")

	if _, err := f.engine.Claim(user, 7, big.NewInt(120), &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
	claimed, err := f.engine.Claimed([32]byte(id), 7)
	if err != nil || claimed.Sign() != 0 {
		t.Fatalf("rejected claim must not record progress, got %s (err %v)", claimed, err)
	}
	balance, err := f.manager.Balance(user[:], rewardSymbol)
	if err != nil || balance.Sign() != 0 {
		t.Fatalf("rejected claim must not pay out, got %s (err %v)", balance, err)
	}
}

func TestClaimWithoutVerifierFails(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	engine := rewarder.NewEngine(f.manager, f.registry, nil)
	if _, err := engine.Claim(addr(0x02), 7, big.NewInt(10), &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrVerifierNotSet) {
		t.Fatalf("expected verifier-not-set error, got %v", err)
	}
}

func TestClaimRequiresTokenInUse(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	if _, err := f.engine.Claim(addr(0x02), 7, big.NewInt(10), &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrNoTokenInUse) {
		t.Fatalf("expected no-token-in-use error, got %v", err)
	}
}

func TestClaimAddressModeKeysOnCaller(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	f.engine.SetClaimKeyMode(rewarder.ClaimKeyAddress)
	funder := addr(0x01)
	user := addr(0x02)
	f.fund(t, funder, 1000)
	if err := f.engine.Fill(funder, 7, big.NewInt(500)); err != nil {
		t.Fatalf("fill: %v", err)
	}

	// No referral token needed in address mode.
	paid, err := f.engine.Claim(user, 7, big.NewInt(40), &rewarder.ClaimAttestation{})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected payout 40, got %s", paid)
	}
	var key [32]byte
	copy(key[12:], user[:])
	claimed, err := f.engine.Claimed(key, 7)
	if err != nil || claimed.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected address-keyed claimed 40, got %s (err %v)", claimed, err)
	}
}

func TestClaimKeyFollowsTokenAcrossOwners(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	funder := addr(0x01)
	first := addr(0x02)
	second := addr(0x03)
	f.fund(t, funder, 1000)
	if err := f.engine.Fill(funder, 7, big.NewInt(500)); err != nil {
		t.Fatalf("fill: %v", err)
	}
	id := f.mintInUse(t, first, "user1Code")

	if _, err := f.engine.Claim(first, 7, big.NewInt(50), &rewarder.ClaimAttestation{}); err != nil {
		t.Fatalf("claim by first owner: %v", err)
	}
	if err := f.registry.Transfer(first, second, id); err != nil {
		t.Fatalf("transfer token: %v", err)
	}
	if err := f.registry.SetTokenInUse(second, id); err != nil {
		t.Fatalf("set in use: %v", err)
	}

	// The claimed ledger is keyed by token, so the new owner inherits progress.
	if _, err := f.engine.Claim(second, 7, big.NewInt(50), &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrNothingToClaim) {
		t.Fatalf("expected nothing-to-claim for inherited progress, got %v", err)
	}
	paid, err := f.engine.Claim(second, 7, big.NewInt(70), &rewarder.ClaimAttestation{})
	if err != nil {
		t.Fatalf("claim by second owner: %v", err)
	}
	if paid.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected delta payout 20, got %s", paid)
	}
}

func TestClaimRejectsNonPositiveCumulative(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	if _, err := f.engine.Claim(addr(0x02), 7, big.NewInt(0), &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
	if _, err := f.engine.Claim(addr(0x02), 7, nil, &rewarder.ClaimAttestation{}); !errors.Is(err, rewarder.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
}

func TestCurrentDayUsesInjectedClock(t *testing.T) {
	f := newFixture(t, rewarder.VerifierFunc(acceptAll))
	f.engine.SetNowFunc(func() int64 { return 7 * rewarder.SecondsPerDay })
	if day := f.engine.CurrentDay(); day != 7 {
		t.Fatalf("expected day 7, got %d", day)
	}
	f.engine.SetNowFunc(func() int64 { return 8*rewarder.SecondsPerDay - 1 })
	if day := f.engine.CurrentDay(); day != 7 {
		t.Fatalf("expected day 7 at day boundary, got %d", day)
	}
}
