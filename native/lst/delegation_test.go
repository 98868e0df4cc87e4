package lst

import (
	"errors"
	"math/big"
	"testing"

	"stakeshare/native/staker"
)

func TestUpdateDelegationOpensDepositLazily(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	fund(t, state, testHolderA, 1000)
	mustStake(t, engine, testHolderA, 1000)

	if _, ok, _ := engine.DepositForDelegatee(testDelegatee); ok {
		t.Fatalf("deposit should not exist before first delegation")
	}
	mustDelegate(t, engine, testHolderA, testDelegatee)

	id, ok, err := engine.DepositForDelegatee(testDelegatee)
	if err != nil || !ok {
		t.Fatalf("deposit lookup after delegation: ok=%v err=%v", ok, err)
	}
	if got := depositBalance(t, state, id); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("delegated deposit: got %s want 1000", got)
	}
	rec, _ := engine.HolderView(testHolderA)
	if rec.Deposit != id {
		t.Fatalf("holder record deposit: got %d want %d", rec.Deposit, id)
	}
	if rec.Checkpoint.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("checkpoint: got %s want 1000", rec.Checkpoint)
	}

	// Idempotent: a second resolution returns the same handle.
	again, err := engine.FetchOrInitDeposit(testDelegatee)
	if err != nil {
		t.Fatalf("fetch again: %v", err)
	}
	if again != id {
		t.Fatalf("deposit handle changed: %d -> %d", id, again)
	}
}

func TestUpdateDelegationZeroAndDefaultResolveToDefault(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	fund(t, state, testHolderA, 500)
	mustStake(t, engine, testHolderA, 500)
	mustDelegate(t, engine, testHolderA, testDelegatee)

	// The current default delegatee folds the balance back.
	mustDelegate(t, engine, testHolderA, testDefault)
	rec, _ := engine.HolderView(testHolderA)
	if rec.Deposit != 0 {
		t.Fatalf("expected default deposit marker, got %d", rec.Deposit)
	}
	if rec.Checkpoint.Sign() != 0 {
		t.Fatalf("checkpoint must clear on fold, got %s", rec.Checkpoint)
	}
	s, _ := engine.SettingsView()
	if got := depositBalance(t, state, s.DefaultDeposit); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("default deposit after fold: got %s want 500", got)
	}
}

func TestUpdateDepositConsolidatesAccruedBalance(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	fund(t, state, testHolderA, 1000)
	mustStake(t, engine, testHolderA, 1000)
	mustDelegate(t, engine, testHolderA, testDelegatee)
	ownID := state.depositFor[addrKey(testDelegatee)]

	if err := ledger.AccrueReward(ownID, big.NewInt(80)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := engine.SetRewardParameters(testOwner, RewardParameters{PayoutAmount: big.NewInt(80)}); err != nil {
		t.Fatalf("set reward params: %v", err)
	}
	fund(t, state, testHolderB, 80)
	if _, err := engine.ClaimAndDistributeReward(testHolderB, testHolderB, nil, []staker.DepositID{ownID}); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// Re-affirming the same deposit pulls the accrued slice out of the
	// default pool.
	if err := engine.UpdateDeposit(testHolderA, ownID); err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if got := depositBalance(t, state, ownID); got.Cmp(big.NewInt(1080)) != 0 {
		t.Fatalf("consolidated deposit: got %s want 1080", got)
	}
	s, _ := engine.SettingsView()
	if got := depositBalance(t, state, s.DefaultDeposit); got.Sign() != 0 {
		t.Fatalf("default deposit after consolidation: got %s want 0", got)
	}
	rec, _ := engine.HolderView(testHolderA)
	if rec.Checkpoint.Cmp(big.NewInt(1080)) != 0 {
		t.Fatalf("checkpoint after consolidation: got %s want 1080", rec.Checkpoint)
	}
}

func TestUpdateDepositSwitchesBetweenDelegatees(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	other := makeAddress(0x1f)
	if err := ledger.SetDelegateeScore(other, 10_000); err != nil {
		t.Fatalf("score: %v", err)
	}
	fund(t, state, testHolderA, 600)
	mustStake(t, engine, testHolderA, 600)
	mustDelegate(t, engine, testHolderA, testDelegatee)
	firstID := state.depositFor[addrKey(testDelegatee)]

	mustDelegate(t, engine, testHolderA, other)
	secondID := state.depositFor[addrKey(other)]
	if got := depositBalance(t, state, firstID); got.Sign() != 0 {
		t.Fatalf("old deposit not drained: %s", got)
	}
	if got := depositBalance(t, state, secondID); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("new deposit: got %s want 600", got)
	}
}

func TestUpdateDepositRejectsForeignDeposit(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	fund(t, state, testHolderA, 100)
	mustStake(t, engine, testHolderA, 100)

	// A deposit owned by someone other than the engine's module address.
	foreignID, err := ledger.Stake(testHolderB, big.NewInt(50), testDelegatee)
	if err != nil {
		t.Fatalf("open foreign deposit: %v", err)
	}
	if err := engine.UpdateDeposit(testHolderA, foreignID); !errors.Is(err, errDepositNotOwned) {
		t.Fatalf("got %v want %v", err, errDepositNotOwned)
	}
}

func TestUpdateDepositRejectsUnqualifiedTarget(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	weak := makeAddress(0x2a)
	if err := ledger.SetDelegateeScore(weak, 100); err != nil {
		t.Fatalf("score: %v", err)
	}
	if err := engine.SetMinQualifyingBips(testOwner, 5000); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	fund(t, state, testHolderA, 1000)
	mustStake(t, engine, testHolderA, 1000)
	mustDelegate(t, engine, testHolderA, testDelegatee)
	ownID := state.depositFor[addrKey(testDelegatee)]

	// Re-pointing the funded deposit at a weak delegatee would leave it
	// below threshold, so a holder cannot adopt a deposit delegated to one.
	if err := ledger.AlterDelegatee(ownID, weak); err != nil {
		t.Fatalf("alter delegatee: %v", err)
	}
	if err := engine.UpdateDeposit(testHolderB, ownID); !errors.Is(err, errDepositNotQualified) {
		t.Fatalf("got %v want %v", err, errDepositNotQualified)
	}
}

func TestUpdateDepositRejectsOverriddenTarget(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	weak := makeAddress(0x2b)
	if err := ledger.SetDelegateeScore(weak, 0); err != nil {
		t.Fatalf("score: %v", err)
	}
	fund(t, state, testHolderA, 1000)
	mustStake(t, engine, testHolderA, 1000)
	mustDelegate(t, engine, testHolderA, weak)
	ownID := state.depositFor[addrKey(weak)]

	// Raise the threshold after the delegation lands so the deposit becomes
	// eligible for an override.
	if err := engine.SetMinQualifyingBips(testOwner, 5000); err != nil {
		t.Fatalf("set threshold: %v", err)
	}

	if err := engine.EnactOverride(ownID, testHolderB, big.NewInt(0)); err != nil {
		t.Fatalf("enact: %v", err)
	}
	if err := engine.UpdateDeposit(testHolderB, ownID); !errors.Is(err, errDepositOverridden) {
		t.Fatalf("got %v want %v", err, errDepositOverridden)
	}
}

func TestUpdateDepositMetadataOnlyWhenEmpty(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	_ = state
	id, err := engine.FetchOrInitDeposit(testDelegatee)
	if err != nil {
		t.Fatalf("init deposit: %v", err)
	}
	if err := engine.UpdateDeposit(testHolderA, id); err != nil {
		t.Fatalf("empty-holder update: %v", err)
	}
	rec, _ := engine.HolderView(testHolderA)
	if rec.Deposit != id {
		t.Fatalf("metadata write: got %d want %d", rec.Deposit, id)
	}
	if rec.Checkpoint.Sign() != 0 {
		t.Fatalf("checkpoint must stay zero for empty holder")
	}
}
