package state_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/baseddev11/basedRewarder/core/state"
	"github.com/baseddev11/basedRewarder/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return state.NewManager(db)
}

func TestRegisterTokenAndLookup(t *testing.T) {
	manager := newManager(t)
	if err := manager.RegisterToken("based", "Based Token", 18); err != nil {
		t.Fatalf("register: %v", err)
	}
	meta, err := manager.Token("BASED")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if meta == nil || meta.Symbol != "BASED" || meta.Decimals != 18 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if !manager.TokenExists("based") {
		t.Fatalf("token must exist after registration")
	}
	if manager.TokenExists("OTHER") {
		t.Fatalf("unknown token must not exist")
	}
	if err := manager.RegisterToken("BASED", "Based Again", 18); err == nil {
		t.Fatalf("duplicate registration must fail")
	}
	list, err := manager.TokenList()
	if err != nil || len(list) != 1 || list[0] != "BASED" {
		t.Fatalf("unexpected token list %v (err %v)", list, err)
	}
}

func TestTransferChecksBalanceBeforeWriting(t *testing.T) {
	manager := newManager(t)
	if err := manager.RegisterToken("BASED", "Based Token", 18); err != nil {
		t.Fatalf("register: %v", err)
	}
	from := []byte{0x01}
	to := []byte{0x02}
	if err := manager.Mint(from, "BASED", big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := manager.Transfer(from, to, "BASED", big.NewInt(150)); !errors.Is(err, state.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}
	// The failed transfer must not have touched either balance.
	balance, err := manager.Balance(from, "BASED")
	if err != nil || balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected from balance 100, got %s (err %v)", balance, err)
	}
	balance, err = manager.Balance(to, "BASED")
	if err != nil || balance.Sign() != 0 {
		t.Fatalf("expected to balance 0, got %s (err %v)", balance, err)
	}

	if err := manager.Transfer(from, to, "BASED", big.NewInt(60)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	balance, err = manager.Balance(from, "BASED")
	if err != nil || balance.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected from balance 40, got %s (err %v)", balance, err)
	}
	balance, err = manager.Balance(to, "BASED")
	if err != nil || balance.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected to balance 60, got %s (err %v)", balance, err)
	}
}

func TestTransferZeroAmountIsNoop(t *testing.T) {
	manager := newManager(t)
	if err := manager.RegisterToken("BASED", "Based Token", 18); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := manager.Transfer([]byte{0x01}, []byte{0x02}, "BASED", big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
}

func TestRoles(t *testing.T) {
	manager := newManager(t)
	addr := []byte{0xAA, 0xBB}
	if manager.HasRole("ROLE_TEST", addr) {
		t.Fatalf("role must be empty initially")
	}
	if err := manager.SetRole("ROLE_TEST", addr); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if !manager.HasRole("ROLE_TEST", addr) {
		t.Fatalf("role membership not visible")
	}
	// Duplicate assignment stays a single membership.
	if err := manager.SetRole("ROLE_TEST", addr); err != nil {
		t.Fatalf("set role again: %v", err)
	}
	members, err := manager.RoleMembers("ROLE_TEST")
	if err != nil || len(members) != 1 {
		t.Fatalf("expected one member, got %d (err %v)", len(members), err)
	}
	if manager.HasRole("ROLE_OTHER", addr) {
		t.Fatalf("membership must not leak across roles")
	}
}

func TestKVRoundtrip(t *testing.T) {
	manager := newManager(t)
	type record struct {
		Owner  [20]byte
		Amount *big.Int
		Active bool
	}
	var owner [20]byte
	owner[19] = 0x05
	in := record{Owner: owner, Amount: big.NewInt(42), Active: true}
	if err := manager.KVPut([]byte("test/record"), &in); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out record
	ok, err := manager.KVGet([]byte("test/record"), &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Owner != owner || out.Amount.Cmp(big.NewInt(42)) != 0 || !out.Active {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
	ok, err = manager.KVGet([]byte("test/missing"), &out)
	if err != nil || ok {
		t.Fatalf("missing key must report ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestKVAppendDeduplicates(t *testing.T) {
	manager := newManager(t)
	key := []byte("test/list")
	for _, value := range [][]byte{{0x01}, {0x02}, {0x01}} {
		if err := manager.KVAppend(key, value); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	var list [][]byte
	if err := manager.KVGetList(key, &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two entries, got %d", len(list))
	}
	var empty [][]byte
	if err := manager.KVGetList([]byte("test/empty"), &empty); err != nil {
		t.Fatalf("get empty list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("missing list must decode as empty, got %v", empty)
	}
}
