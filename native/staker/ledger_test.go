package staker

import (
	"errors"
	"math/big"
	"testing"

	"stakeshare/crypto"
)

type fakeState struct {
	deposits map[DepositID]*Deposit
	scores   map[string]uint64
	next     DepositID
}

func newFakeState() *fakeState {
	return &fakeState{
		deposits: make(map[DepositID]*Deposit),
		scores:   make(map[string]uint64),
	}
}

func (f *fakeState) Deposit(id DepositID) (*Deposit, error) {
	return f.deposits[id].Clone(), nil
}

func (f *fakeState) PutDeposit(id DepositID, d *Deposit) error {
	f.deposits[id] = d.Clone()
	return nil
}

func (f *fakeState) NextDepositID() (DepositID, error) {
	f.next++
	return f.next, nil
}

func (f *fakeState) DelegateeScore(delegatee crypto.Address) (uint64, bool, error) {
	bips, ok := f.scores[string(delegatee.Bytes())]
	return bips, ok, nil
}

func (f *fakeState) PutDelegateeScore(delegatee crypto.Address, bips uint64) error {
	f.scores[string(delegatee.Bytes())] = bips
	return nil
}

func testAddr(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.LSTPrefix, raw)
}

var (
	depositOwner = testAddr(0x01)
	delegateeOne = testAddr(0x02)
	delegateeTwo = testAddr(0x03)
)

func TestStakeOpensDeposit(t *testing.T) {
	ledger := NewStateLedger(newFakeState())
	id, err := ledger.Stake(depositOwner, big.NewInt(500), delegateeOne)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if id != 1 {
		t.Fatalf("first deposit id: got %d want 1", id)
	}
	dep, err := ledger.Deposit(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if dep.Balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance: got %s want 500", dep.Balance)
	}
	if !dep.Owner.Equal(depositOwner) || !dep.Delegatee.Equal(delegateeOne) {
		t.Fatalf("ownership or delegation wrong")
	}
	// Without a score the delegatee earns 1:1 on balance.
	if dep.EarningPower.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("earning power: got %s want 500", dep.EarningPower)
	}
	if _, err := ledger.Stake(depositOwner, big.NewInt(1), crypto.Address{}); !errors.Is(err, errMissingDelegatee) {
		t.Fatalf("zero delegatee: got %v want %v", err, errMissingDelegatee)
	}
}

func TestEarningPowerTracksScore(t *testing.T) {
	ledger := NewStateLedger(newFakeState())
	if err := ledger.SetDelegateeScore(delegateeOne, 2500); err != nil {
		t.Fatalf("score: %v", err)
	}
	id, err := ledger.Stake(depositOwner, big.NewInt(1000), delegateeOne)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	dep, _ := ledger.Deposit(id)
	if dep.EarningPower.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("earning power: got %s want 250", dep.EarningPower)
	}

	// A score change is visible on the very next load without any write to
	// the deposit itself.
	if err := ledger.SetDelegateeScore(delegateeOne, 7500); err != nil {
		t.Fatalf("rescore: %v", err)
	}
	dep, _ = ledger.Deposit(id)
	if dep.EarningPower.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("earning power after rescore: got %s want 750", dep.EarningPower)
	}

	if err := ledger.SetDelegateeScore(delegateeOne, 10_001); !errors.Is(err, errScoreAboveDenom) {
		t.Fatalf("score cap: got %v want %v", err, errScoreAboveDenom)
	}
	power, err := ledger.EarningPower(big.NewInt(400), delegateeOne)
	if err != nil || power.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("prospective power: got %s err %v", power, err)
	}
}

func TestStakeMoreAndWithdraw(t *testing.T) {
	ledger := NewStateLedger(newFakeState())
	id, _ := ledger.Stake(depositOwner, big.NewInt(100), delegateeOne)
	if err := ledger.StakeMore(id, big.NewInt(50)); err != nil {
		t.Fatalf("stake more: %v", err)
	}
	if err := ledger.Withdraw(id, big.NewInt(120)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	dep, _ := ledger.Deposit(id)
	if dep.Balance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("balance: got %s want 30", dep.Balance)
	}
	if err := ledger.Withdraw(id, big.NewInt(31)); !errors.Is(err, errInsufficientFunds) {
		t.Fatalf("overdraw: got %v want %v", err, errInsufficientFunds)
	}
	if err := ledger.StakeMore(99, big.NewInt(1)); !errors.Is(err, errUnknownDeposit) {
		t.Fatalf("unknown deposit: got %v want %v", err, errUnknownDeposit)
	}
}

func TestAlterDelegateeReassignsWeight(t *testing.T) {
	ledger := NewStateLedger(newFakeState())
	if err := ledger.SetDelegateeScore(delegateeTwo, 5000); err != nil {
		t.Fatalf("score: %v", err)
	}
	id, _ := ledger.Stake(depositOwner, big.NewInt(600), delegateeOne)
	if err := ledger.AlterDelegatee(id, delegateeTwo); err != nil {
		t.Fatalf("alter: %v", err)
	}
	dep, _ := ledger.Deposit(id)
	if !dep.Delegatee.Equal(delegateeTwo) {
		t.Fatalf("delegatee not changed")
	}
	if dep.EarningPower.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("earning power under new score: got %s want 300", dep.EarningPower)
	}
}

func TestAccrueAndClaimReward(t *testing.T) {
	ledger := NewStateLedger(newFakeState())
	id, _ := ledger.Stake(depositOwner, big.NewInt(100), delegateeOne)
	if err := ledger.AccrueReward(id, big.NewInt(7)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := ledger.AccrueReward(id, big.NewInt(5)); err != nil {
		t.Fatalf("accrue again: %v", err)
	}
	if err := ledger.AccrueReward(id, big.NewInt(0)); !errors.Is(err, errNegativeAccrual) {
		t.Fatalf("zero accrual: got %v want %v", err, errNegativeAccrual)
	}
	accrued, err := ledger.AccruedReward(id)
	if err != nil || accrued.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("accrued: got %s err %v", accrued, err)
	}
	claimed, err := ledger.ClaimReward(id)
	if err != nil || claimed.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("claimed: got %s err %v", claimed, err)
	}
	// Rewards do not compound into the deposit balance.
	dep, _ := ledger.Deposit(id)
	if dep.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance moved on claim: %s", dep.Balance)
	}
	if accrued, _ = ledger.AccruedReward(id); accrued.Sign() != 0 {
		t.Fatalf("accrued not zeroed: %s", accrued)
	}
}
