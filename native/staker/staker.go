package staker

import (
	"math/big"

	"stakeshare/crypto"
)

// DepositID is an opaque handle naming a deposit inside the external staking
// ledger. It supports equality comparison only; arithmetic on the raw value
// is never meaningful outside the ledger boundary.
type DepositID uint64

// Deposit is the read view of a single deposit as exposed by the staking
// ledger's accessor.
type Deposit struct {
	Balance      *big.Int
	Owner        crypto.Address
	Delegatee    crypto.Address
	EarningPower *big.Int
	Accrued      *big.Int
}

// EnsureDefaults normalises nil big.Int fields after decoding.
func (d *Deposit) EnsureDefaults() {
	if d.Balance == nil {
		d.Balance = big.NewInt(0)
	}
	if d.EarningPower == nil {
		d.EarningPower = big.NewInt(0)
	}
	if d.Accrued == nil {
		d.Accrued = big.NewInt(0)
	}
}

// Clone returns a deep copy of the deposit view.
func (d *Deposit) Clone() *Deposit {
	if d == nil {
		return nil
	}
	clone := &Deposit{Owner: d.Owner, Delegatee: d.Delegatee}
	if d.Balance != nil {
		clone.Balance = new(big.Int).Set(d.Balance)
	}
	if d.EarningPower != nil {
		clone.EarningPower = new(big.Int).Set(d.EarningPower)
	}
	if d.Accrued != nil {
		clone.Accrued = new(big.Int).Set(d.Accrued)
	}
	return clone
}

// Ledger is the boundary the accounting engine depends on. The production
// implementation is the network's staking module; StateLedger in this package
// is a reference implementation backed by the engine's own storage.
type Ledger interface {
	// Stake opens a new deposit owned by owner and delegated to delegatee.
	Stake(owner crypto.Address, amount *big.Int, delegatee crypto.Address) (DepositID, error)
	// StakeMore adds funds to an existing deposit.
	StakeMore(id DepositID, amount *big.Int) error
	// Withdraw removes funds from a deposit.
	Withdraw(id DepositID, amount *big.Int) error
	// AlterDelegatee re-points the deposit's voting weight.
	AlterDelegatee(id DepositID, newDelegatee crypto.Address) error
	// ClaimReward collects and zeroes the deposit's accrued reward.
	ClaimReward(id DepositID) (*big.Int, error)
	// AccruedReward reports the claimable reward without mutating it.
	AccruedReward(id DepositID) (*big.Int, error)
	// Deposit exposes the read accessor for a single deposit.
	Deposit(id DepositID) (*Deposit, error)
	// EarningPower reports the earning power a deposit of the given balance
	// would hold if delegated to delegatee.
	EarningPower(balance *big.Int, delegatee crypto.Address) (*big.Int, error)
}
