package lst

import (
	"errors"
	"math/big"
	"testing"

	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// overrideFixture stakes 1000 into a deposit delegated to a low-score
// delegatee and then raises the qualification threshold above it.
func overrideFixture(t *testing.T) (*Engine, *mockState, *staker.StateLedger, crypto.Address, staker.DepositID) {
	t.Helper()
	engine, state, ledger := newTestEngine(t)
	weak := makeAddress(0x51)
	if err := ledger.SetDelegateeScore(weak, 100); err != nil {
		t.Fatalf("score: %v", err)
	}
	fund(t, state, testHolderA, 1000)
	mustStake(t, engine, testHolderA, 1000)
	mustDelegate(t, engine, testHolderA, weak)
	id := state.depositFor[addrKey(weak)]
	if err := engine.SetMinQualifyingBips(testOwner, 5000); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	return engine, state, ledger, weak, id
}

func TestEnactOverrideRedirectsWeight(t *testing.T) {
	engine, _, ledger, _, id := overrideFixture(t)
	if err := engine.SetMaxOverrideTip(testOwner, big.NewInt(50)); err != nil {
		t.Fatalf("set max tip: %v", err)
	}
	tipper := makeAddress(0x52)
	if err := engine.EnactOverride(id, tipper, big.NewInt(40)); err != nil {
		t.Fatalf("enact: %v", err)
	}
	dep, err := ledger.Deposit(id)
	if err != nil {
		t.Fatalf("load deposit: %v", err)
	}
	if !dep.Delegatee.Equal(testDefault) {
		t.Fatalf("weight not redirected to default delegatee")
	}
	flagged, err := engine.IsOverridden(id)
	if err != nil || !flagged {
		t.Fatalf("override flag: flagged=%v err=%v", flagged, err)
	}
	// The tip dilutes holders instead of minting new stake.
	supply, _ := engine.TotalSupply()
	if supply.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("supply changed: %s", supply)
	}
	tip := balanceOf(t, engine, tipper)
	if tip.Cmp(big.NewInt(39)) < 0 || tip.Cmp(big.NewInt(40)) > 0 {
		t.Fatalf("tip: got %s want 39..40", tip)
	}
	// A second enact on the same deposit is rejected.
	if err := engine.EnactOverride(id, tipper, big.NewInt(0)); !errors.Is(err, errDepositOverridden) {
		t.Fatalf("double enact: got %v want %v", err, errDepositOverridden)
	}
}

func TestEnactOverrideZeroTipNeedsNoReceiver(t *testing.T) {
	engine, _, _, _, id := overrideFixture(t)
	if err := engine.EnactOverride(id, crypto.Address{}, big.NewInt(0)); err != nil {
		t.Fatalf("zero tip enact: %v", err)
	}
}

func TestEnactOverrideTipCap(t *testing.T) {
	engine, _, _, _, id := overrideFixture(t)
	// MaxOverrideTip starts at zero, so any tip request is over the cap.
	if err := engine.EnactOverride(id, testHolderB, big.NewInt(1)); !errors.Is(err, errTipExceedsMax) {
		t.Fatalf("got %v want %v", err, errTipExceedsMax)
	}
}

func TestEnactOverrideRejectsQualified(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	fund(t, state, testHolderA, 1000)
	mustStake(t, engine, testHolderA, 1000)
	mustDelegate(t, engine, testHolderA, testDelegatee)
	id := state.depositFor[addrKey(testDelegatee)]
	if err := engine.SetMinQualifyingBips(testOwner, 5000); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	if err := engine.EnactOverride(id, testHolderB, big.NewInt(0)); !errors.Is(err, errDepositQualified) {
		t.Fatalf("got %v want %v", err, errDepositQualified)
	}
}

func TestEnactOverrideRejectsDefaultDeposit(t *testing.T) {
	engine, _, _, _, _ := overrideFixture(t)
	s, _ := engine.SettingsView()
	if err := engine.EnactOverride(s.DefaultDeposit, testHolderB, big.NewInt(0)); !errors.Is(err, errDepositIsDefault) {
		t.Fatalf("got %v want %v", err, errDepositIsDefault)
	}
}

func TestEnactOverrideRejectsEmptyDeposit(t *testing.T) {
	engine, _, ledger, _, _ := overrideFixture(t)
	idle := makeAddress(0x53)
	if err := ledger.SetDelegateeScore(idle, 0); err != nil {
		t.Fatalf("score: %v", err)
	}
	id, err := engine.FetchOrInitDeposit(idle)
	if err != nil {
		t.Fatalf("init deposit: %v", err)
	}
	if err := engine.EnactOverride(id, testHolderB, big.NewInt(0)); !errors.Is(err, errDepositEmpty) {
		t.Fatalf("got %v want %v", err, errDepositEmpty)
	}
}

func TestRevokeOverrideRequiresRequalification(t *testing.T) {
	engine, _, ledger, weak, id := overrideFixture(t)
	if err := engine.EnactOverride(id, crypto.Address{}, big.NewInt(0)); err != nil {
		t.Fatalf("enact: %v", err)
	}

	if err := engine.RevokeOverride(id, testDelegatee, crypto.Address{}, big.NewInt(0)); !errors.Is(err, errOverrideMismatch) {
		t.Fatalf("wrong original: got %v want %v", err, errOverrideMismatch)
	}
	// The original is still below threshold: weight stays with the default.
	if err := engine.RevokeOverride(id, weak, crypto.Address{}, big.NewInt(0)); !errors.Is(err, errDepositNotQualified) {
		t.Fatalf("unqualified original: got %v want %v", err, errDepositNotQualified)
	}

	if err := ledger.SetDelegateeScore(weak, 8000); err != nil {
		t.Fatalf("raise score: %v", err)
	}
	if err := engine.RevokeOverride(id, weak, crypto.Address{}, big.NewInt(0)); err != nil {
		t.Fatalf("revoke after requalification: %v", err)
	}
	dep, err := ledger.Deposit(id)
	if err != nil {
		t.Fatalf("load deposit: %v", err)
	}
	if !dep.Delegatee.Equal(weak) {
		t.Fatalf("weight not restored to original delegatee")
	}
	flagged, err := engine.IsOverridden(id)
	if err != nil || flagged {
		t.Fatalf("override flag not cleared: flagged=%v err=%v", flagged, err)
	}
}

func TestRevokeOverrideRejectsUnflaggedDeposit(t *testing.T) {
	engine, _, _, weak, id := overrideFixture(t)
	if err := engine.RevokeOverride(id, weak, crypto.Address{}, big.NewInt(0)); !errors.Is(err, errNotOverridden) {
		t.Fatalf("got %v want %v", err, errNotOverridden)
	}
}

func TestMigrateOverrideAfterDefaultRotation(t *testing.T) {
	engine, _, ledger, _, id := overrideFixture(t)
	if err := engine.EnactOverride(id, crypto.Address{}, big.NewInt(0)); err != nil {
		t.Fatalf("enact: %v", err)
	}
	// Still pointing at the current default: nothing to migrate.
	if err := engine.MigrateOverride(id, crypto.Address{}, big.NewInt(0)); !errors.Is(err, errOverrideCurrent) {
		t.Fatalf("pre-rotation: got %v want %v", err, errOverrideCurrent)
	}

	next := makeAddress(0x54)
	if err := ledger.SetDelegateeScore(next, 10_000); err != nil {
		t.Fatalf("score: %v", err)
	}
	if err := engine.SetDefaultDelegatee(testOwner, next); err != nil {
		t.Fatalf("rotate default: %v", err)
	}
	if err := engine.MigrateOverride(id, crypto.Address{}, big.NewInt(0)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	dep, err := ledger.Deposit(id)
	if err != nil {
		t.Fatalf("load deposit: %v", err)
	}
	if !dep.Delegatee.Equal(next) {
		t.Fatalf("override not re-pointed at rotated default")
	}
	if err := engine.MigrateOverride(id, crypto.Address{}, big.NewInt(0)); !errors.Is(err, errOverrideCurrent) {
		t.Fatalf("second migrate: got %v want %v", err, errOverrideCurrent)
	}
}
