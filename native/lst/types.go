package lst

import (
	"math/big"

	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// Totals is the global share accounting state. Supply is the amount of stake
// the engine holds across all deposits; Shares is the outstanding claim on it.
// Shares drift upward relative to Supply only through truncation, which always
// resolves in the pool's favour.
type Totals struct {
	Supply *big.Int
	Shares *big.Int
}

// EnsureDefaults normalises nil fields after decoding.
func (t *Totals) EnsureDefaults() {
	if t.Supply == nil {
		t.Supply = big.NewInt(0)
	}
	if t.Shares == nil {
		t.Shares = big.NewInt(0)
	}
}

// Clone returns a deep copy of the totals.
func (t *Totals) Clone() *Totals {
	if t == nil {
		return &Totals{Supply: big.NewInt(0), Shares: big.NewInt(0)}
	}
	clone := &Totals{}
	if t.Supply != nil {
		clone.Supply = new(big.Int).Set(t.Supply)
	}
	if t.Shares != nil {
		clone.Shares = new(big.Int).Set(t.Shares)
	}
	clone.EnsureDefaults()
	return clone
}

// HolderRecord is the per-holder accounting state. Deposit is zero while the
// holder rides the default deposit. Checkpoint is the slice of the holder's
// live balance physically parked in their own delegated deposit; the
// remainder lives in the default deposit alongside reward accrual.
type HolderRecord struct {
	Address    crypto.Address
	Deposit    staker.DepositID
	Checkpoint *big.Int
	Shares     *big.Int
}

// EnsureDefaults normalises nil fields after decoding.
func (h *HolderRecord) EnsureDefaults() {
	if h.Checkpoint == nil {
		h.Checkpoint = big.NewInt(0)
	}
	if h.Shares == nil {
		h.Shares = big.NewInt(0)
	}
}

// Clone returns a deep copy of the holder record.
func (h *HolderRecord) Clone() *HolderRecord {
	if h == nil {
		return nil
	}
	clone := &HolderRecord{Address: h.Address, Deposit: h.Deposit}
	if h.Checkpoint != nil {
		clone.Checkpoint = new(big.Int).Set(h.Checkpoint)
	}
	if h.Shares != nil {
		clone.Shares = new(big.Int).Set(h.Shares)
	}
	clone.EnsureDefaults()
	return clone
}

// RewardParameters configures the permissionless reward auction.
type RewardParameters struct {
	PayoutAmount *big.Int
	FeeBips      uint64
	FeeCollector crypto.Address
}

// Clone returns a deep copy of the reward parameters.
func (p RewardParameters) Clone() RewardParameters {
	clone := RewardParameters{FeeBips: p.FeeBips, FeeCollector: p.FeeCollector}
	if p.PayoutAmount != nil {
		clone.PayoutAmount = new(big.Int).Set(p.PayoutAmount)
	}
	return clone
}

// ControlState tags who may mutate the default delegatee and guardian. The
// only legal transition is OwnerControlled -> GuardianControlled, taken the
// first time the guardian acts.
type ControlState uint8

const (
	// OwnerControlled permits the owner to rotate delegation settings.
	OwnerControlled ControlState = iota
	// GuardianControlled locks delegation settings to the guardian.
	GuardianControlled
)

// Settings is the owner/guardian-governed configuration record.
type Settings struct {
	Owner             crypto.Address
	Guardian          crypto.Address
	Control           ControlState
	DefaultDelegatee  crypto.Address
	DefaultDeposit    staker.DepositID
	Reward            RewardParameters
	MaxOverrideTip    *big.Int
	MinQualifyingBips uint64
	FixedCaller       crypto.Address
}

// EnsureDefaults normalises nil fields after decoding.
func (s *Settings) EnsureDefaults() {
	if s.Reward.PayoutAmount == nil {
		s.Reward.PayoutAmount = big.NewInt(0)
	}
	if s.MaxOverrideTip == nil {
		s.MaxOverrideTip = big.NewInt(0)
	}
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	clone := &Settings{
		Owner:             s.Owner,
		Guardian:          s.Guardian,
		Control:           s.Control,
		DefaultDelegatee:  s.DefaultDelegatee,
		DefaultDeposit:    s.DefaultDeposit,
		Reward:            s.Reward.Clone(),
		MinQualifyingBips: s.MinQualifyingBips,
		FixedCaller:       s.FixedCaller,
	}
	if s.MaxOverrideTip != nil {
		clone.MaxOverrideTip = new(big.Int).Set(s.MaxOverrideTip)
	}
	clone.EnsureDefaults()
	return clone
}

// OverrideRecord flags a deposit whose delegatee was administratively
// redirected to the default. Original is the delegatee to restore on revoke;
// DelegatedTo is the default delegatee the deposit was pointed at, used to
// detect that a migration is due.
type OverrideRecord struct {
	Deposit     staker.DepositID
	Original    crypto.Address
	DelegatedTo crypto.Address
}
