package staker

import (
	"errors"
	"math/big"

	"stakeshare/crypto"
)

var (
	errNilState          = errors.New("staker: state not configured")
	errInvalidAmount     = errors.New("staker: amount must not be negative")
	errUnknownDeposit    = errors.New("staker: unknown deposit")
	errInsufficientFunds = errors.New("staker: withdrawal exceeds deposit balance")
	errMissingDelegatee  = errors.New("staker: delegatee required")
	errNegativeAccrual   = errors.New("staker: accrual must be positive")
	errScoreAboveDenom   = errors.New("staker: delegatee score exceeds 10000 bips")
)

var scoreDenominator = big.NewInt(10_000)

type ledgerState interface {
	Deposit(id DepositID) (*Deposit, error)
	PutDeposit(id DepositID, d *Deposit) error
	NextDepositID() (DepositID, error)
	DelegateeScore(delegatee crypto.Address) (uint64, bool, error)
	PutDelegateeScore(delegatee crypto.Address, bips uint64) error
}

// StateLedger is a reference staking ledger persisted through the engine's
// storage manager. Earning power tracks deposit balance scaled by an
// operator-assigned per-delegatee score, which is what makes the override
// qualification threshold observable end to end.
type StateLedger struct {
	state ledgerState
}

// NewStateLedger builds a staking ledger over the supplied state backend.
func NewStateLedger(state ledgerState) *StateLedger {
	return &StateLedger{state: state}
}

func (l *StateLedger) load(id DepositID) (*Deposit, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	dep, err := l.state.Deposit(id)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, errUnknownDeposit
	}
	dep.EnsureDefaults()
	// Earning power is derived, not stored: it always reflects the current
	// delegatee score so qualification checks see score changes immediately.
	if dep.EarningPower, err = l.earningPower(dep.Balance, dep.Delegatee); err != nil {
		return nil, err
	}
	return dep, nil
}

func (l *StateLedger) earningPower(balance *big.Int, delegatee crypto.Address) (*big.Int, error) {
	bips, ok, err := l.state.DelegateeScore(delegatee)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int).Set(balance), nil
	}
	power := new(big.Int).Mul(balance, new(big.Int).SetUint64(bips))
	return power.Quo(power, scoreDenominator), nil
}

// EarningPower reports the earning power a deposit of the given balance would
// hold under delegatee's current score.
func (l *StateLedger) EarningPower(balance *big.Int, delegatee crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	return l.earningPower(balance, delegatee)
}

// Stake opens a new deposit for owner delegated to delegatee.
func (l *StateLedger) Stake(owner crypto.Address, amount *big.Int, delegatee crypto.Address) (DepositID, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return 0, errInvalidAmount
	}
	if delegatee.IsZero() {
		return 0, errMissingDelegatee
	}
	id, err := l.state.NextDepositID()
	if err != nil {
		return 0, err
	}
	dep := &Deposit{
		Balance:   new(big.Int).Set(amount),
		Owner:     owner,
		Delegatee: delegatee,
		Accrued:   big.NewInt(0),
	}
	if dep.EarningPower, err = l.earningPower(dep.Balance, delegatee); err != nil {
		return 0, err
	}
	if err := l.state.PutDeposit(id, dep); err != nil {
		return 0, err
	}
	return id, nil
}

// StakeMore adds funds to an existing deposit.
func (l *StateLedger) StakeMore(id DepositID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	dep, err := l.load(id)
	if err != nil {
		return err
	}
	dep.Balance = new(big.Int).Add(dep.Balance, amount)
	if dep.EarningPower, err = l.earningPower(dep.Balance, dep.Delegatee); err != nil {
		return err
	}
	return l.state.PutDeposit(id, dep)
}

// Withdraw removes funds from a deposit.
func (l *StateLedger) Withdraw(id DepositID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	dep, err := l.load(id)
	if err != nil {
		return err
	}
	if dep.Balance.Cmp(amount) < 0 {
		return errInsufficientFunds
	}
	dep.Balance = new(big.Int).Sub(dep.Balance, amount)
	if dep.EarningPower, err = l.earningPower(dep.Balance, dep.Delegatee); err != nil {
		return err
	}
	return l.state.PutDeposit(id, dep)
}

// AlterDelegatee re-points the deposit's voting weight.
func (l *StateLedger) AlterDelegatee(id DepositID, newDelegatee crypto.Address) error {
	if newDelegatee.IsZero() {
		return errMissingDelegatee
	}
	dep, err := l.load(id)
	if err != nil {
		return err
	}
	dep.Delegatee = newDelegatee
	if dep.EarningPower, err = l.earningPower(dep.Balance, newDelegatee); err != nil {
		return err
	}
	return l.state.PutDeposit(id, dep)
}

// ClaimReward collects and zeroes the deposit's accrued reward.
func (l *StateLedger) ClaimReward(id DepositID) (*big.Int, error) {
	dep, err := l.load(id)
	if err != nil {
		return nil, err
	}
	claimed := dep.Accrued
	dep.Accrued = big.NewInt(0)
	if err := l.state.PutDeposit(id, dep); err != nil {
		return nil, err
	}
	return claimed, nil
}

// AccruedReward reports the claimable reward without mutating it.
func (l *StateLedger) AccruedReward(id DepositID) (*big.Int, error) {
	dep, err := l.load(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(dep.Accrued), nil
}

// Deposit exposes the read accessor for a single deposit.
func (l *StateLedger) Deposit(id DepositID) (*Deposit, error) {
	return l.load(id)
}

// AccrueReward credits yield to a deposit. It stands in for the network's
// reward schedule when running the engine standalone and in tests.
func (l *StateLedger) AccrueReward(id DepositID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errNegativeAccrual
	}
	dep, err := l.load(id)
	if err != nil {
		return err
	}
	dep.Accrued = new(big.Int).Add(dep.Accrued, amount)
	return l.state.PutDeposit(id, dep)
}

// SetDelegateeScore assigns the performance score used to derive earning
// power for every deposit pointed at delegatee, in basis points of balance.
func (l *StateLedger) SetDelegateeScore(delegatee crypto.Address, bips uint64) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if delegatee.IsZero() {
		return errMissingDelegatee
	}
	if bips > 10_000 {
		return errScoreAboveDenom
	}
	return l.state.PutDelegateeScore(delegatee, bips)
}
