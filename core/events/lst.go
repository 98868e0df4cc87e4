package events

import (
	"math/big"
	"strconv"

	"stakeshare/core/types"
	"stakeshare/crypto"
)

const (
	// TypeStaked captures stake entering the engine and shares being minted.
	TypeStaked = "lst.staked"
	// TypeUnstaked captures stake leaving the engine and shares being burned.
	TypeUnstaked = "lst.unstaked"
	// TypeTransfer mirrors the fungible-token transfer surface. Mints and
	// burns use an empty from/to leg respectively.
	TypeTransfer = "lst.transfer"
	// TypeApproval is emitted when an allowance is granted or adjusted.
	TypeApproval = "lst.approval"
	// TypeDepositInitialized signals the lazy creation of a delegatee deposit.
	TypeDepositInitialized = "lst.depositInitialized"
	// TypeDepositUpdated captures a holder re-pointing their delegated balance.
	TypeDepositUpdated = "lst.depositUpdated"
	// TypeRewardDistributed records a reward auction settling.
	TypeRewardDistributed = "lst.rewardDistributed"
	// TypeOverrideEnacted marks a deposit redirected to the default delegatee.
	TypeOverrideEnacted = "lst.overrideEnacted"
	// TypeOverrideRevoked marks an override being reversed.
	TypeOverrideRevoked = "lst.overrideRevoked"
	// TypeOverrideMigrated marks an overridden deposit following a new default.
	TypeOverrideMigrated = "lst.overrideMigrated"
	// TypeDefaultDelegateeChanged captures rotation of the default delegatee.
	TypeDefaultDelegateeChanged = "lst.defaultDelegateeChanged"
	// TypeGuardianChanged captures rotation of the delegatee guardian.
	TypeGuardianChanged = "lst.guardianChanged"
)

// Staked captures the share delta realised when stake enters the engine.
type Staked struct {
	Holder       crypto.Address
	Amount       *big.Int
	SharesMinted *big.Int
	NewShares    *big.Int
	Deposit      uint64
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	return &types.Event{Type: TypeStaked, Attributes: map[string]string{
		"holder":       formatAddress(e.Holder),
		"amount":       formatAmount(e.Amount),
		"sharesMinted": formatAmount(e.SharesMinted),
		"newShares":    formatAmount(e.NewShares),
		"deposit":      strconv.FormatUint(e.Deposit, 10),
	}}
}

// Unstaked captures the share delta realised when stake leaves the engine.
type Unstaked struct {
	Holder       crypto.Address
	Amount       *big.Int
	SharesBurned *big.Int
	NewShares    *big.Int
	Gated        bool
	WithdrawalID uint64
}

// EventType satisfies the Event interface.
func (Unstaked) EventType() string { return TypeUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e Unstaked) Event() *types.Event {
	attrs := map[string]string{
		"holder":       formatAddress(e.Holder),
		"amount":       formatAmount(e.Amount),
		"sharesBurned": formatAmount(e.SharesBurned),
		"newShares":    formatAmount(e.NewShares),
	}
	if e.Gated {
		attrs["withdrawalId"] = strconv.FormatUint(e.WithdrawalID, 10)
	}
	return &types.Event{Type: TypeUnstaked, Attributes: attrs}
}

// Transfer mirrors the fungible transfer surface. A zero From marks a mint and
// a zero To marks a burn.
type Transfer struct {
	From  crypto.Address
	To    crypto.Address
	Value *big.Int
}

// EventType satisfies the Event interface.
func (Transfer) EventType() string { return TypeTransfer }

// Event converts the structured payload into a broadcastable event.
func (e Transfer) Event() *types.Event {
	return &types.Event{Type: TypeTransfer, Attributes: map[string]string{
		"from":  formatAddress(e.From),
		"to":    formatAddress(e.To),
		"value": formatAmount(e.Value),
	}}
}

// Approval captures an allowance grant.
type Approval struct {
	Owner   crypto.Address
	Spender crypto.Address
	Value   *big.Int
}

// EventType satisfies the Event interface.
func (Approval) EventType() string { return TypeApproval }

// Event converts the structured payload into a broadcastable event.
func (e Approval) Event() *types.Event {
	return &types.Event{Type: TypeApproval, Attributes: map[string]string{
		"owner":   formatAddress(e.Owner),
		"spender": formatAddress(e.Spender),
		"value":   formatAmount(e.Value),
	}}
}

// DepositInitialized signals that a delegatee received its lazily created
// external deposit.
type DepositInitialized struct {
	Delegatee crypto.Address
	Deposit   uint64
}

// EventType satisfies the Event interface.
func (DepositInitialized) EventType() string { return TypeDepositInitialized }

// Event converts the structured payload into a broadcastable event.
func (e DepositInitialized) Event() *types.Event {
	return &types.Event{Type: TypeDepositInitialized, Attributes: map[string]string{
		"delegatee": formatAddress(e.Delegatee),
		"deposit":   strconv.FormatUint(e.Deposit, 10),
	}}
}

// DepositUpdated captures a holder moving their delegated balance between
// external deposits.
type DepositUpdated struct {
	Holder     crypto.Address
	OldDeposit uint64
	NewDeposit uint64
}

// EventType satisfies the Event interface.
func (DepositUpdated) EventType() string { return TypeDepositUpdated }

// Event converts the structured payload into a broadcastable event.
func (e DepositUpdated) Event() *types.Event {
	return &types.Event{Type: TypeDepositUpdated, Attributes: map[string]string{
		"holder":     formatAddress(e.Holder),
		"oldDeposit": strconv.FormatUint(e.OldDeposit, 10),
		"newDeposit": strconv.FormatUint(e.NewDeposit, 10),
	}}
}

// RewardDistributed records a settled reward auction round.
type RewardDistributed struct {
	Claimer      crypto.Address
	Recipient    crypto.Address
	Claimed      *big.Int
	Payout       *big.Int
	Fee          *big.Int
	FeeCollector crypto.Address
}

// EventType satisfies the Event interface.
func (RewardDistributed) EventType() string { return TypeRewardDistributed }

// Event converts the structured payload into a broadcastable event.
func (e RewardDistributed) Event() *types.Event {
	attrs := map[string]string{
		"claimer":   formatAddress(e.Claimer),
		"recipient": formatAddress(e.Recipient),
		"claimed":   formatAmount(e.Claimed),
		"payout":    formatAmount(e.Payout),
	}
	if e.Fee != nil && e.Fee.Sign() > 0 {
		attrs["fee"] = formatAmount(e.Fee)
		attrs["feeCollector"] = formatAddress(e.FeeCollector)
	}
	return &types.Event{Type: TypeRewardDistributed, Attributes: attrs}
}

// OverrideEnacted marks a deposit administratively redirected to the default
// delegatee.
type OverrideEnacted struct {
	Deposit           uint64
	OriginalDelegatee crypto.Address
	TipReceiver       crypto.Address
	Tip               *big.Int
}

// EventType satisfies the Event interface.
func (OverrideEnacted) EventType() string { return TypeOverrideEnacted }

// Event converts the structured payload into a broadcastable event.
func (e OverrideEnacted) Event() *types.Event {
	return &types.Event{Type: TypeOverrideEnacted, Attributes: map[string]string{
		"deposit":           strconv.FormatUint(e.Deposit, 10),
		"originalDelegatee": formatAddress(e.OriginalDelegatee),
		"tipReceiver":       formatAddress(e.TipReceiver),
		"tip":               formatAmount(e.Tip),
	}}
}

// OverrideRevoked marks an override reversed back to its original delegatee.
type OverrideRevoked struct {
	Deposit     uint64
	Delegatee   crypto.Address
	TipReceiver crypto.Address
	Tip         *big.Int
}

// EventType satisfies the Event interface.
func (OverrideRevoked) EventType() string { return TypeOverrideRevoked }

// Event converts the structured payload into a broadcastable event.
func (e OverrideRevoked) Event() *types.Event {
	return &types.Event{Type: TypeOverrideRevoked, Attributes: map[string]string{
		"deposit":     strconv.FormatUint(e.Deposit, 10),
		"delegatee":   formatAddress(e.Delegatee),
		"tipReceiver": formatAddress(e.TipReceiver),
		"tip":         formatAmount(e.Tip),
	}}
}

// OverrideMigrated marks an overridden deposit re-pointed at a rotated
// default delegatee.
type OverrideMigrated struct {
	Deposit      uint64
	NewDelegatee crypto.Address
	TipReceiver  crypto.Address
	Tip          *big.Int
}

// EventType satisfies the Event interface.
func (OverrideMigrated) EventType() string { return TypeOverrideMigrated }

// Event converts the structured payload into a broadcastable event.
func (e OverrideMigrated) Event() *types.Event {
	return &types.Event{Type: TypeOverrideMigrated, Attributes: map[string]string{
		"deposit":      strconv.FormatUint(e.Deposit, 10),
		"newDelegatee": formatAddress(e.NewDelegatee),
		"tipReceiver":  formatAddress(e.TipReceiver),
		"tip":          formatAmount(e.Tip),
	}}
}

// DefaultDelegateeChanged captures rotation of the default delegatee.
type DefaultDelegateeChanged struct {
	Old crypto.Address
	New crypto.Address
}

// EventType satisfies the Event interface.
func (DefaultDelegateeChanged) EventType() string { return TypeDefaultDelegateeChanged }

// Event converts the structured payload into a broadcastable event.
func (e DefaultDelegateeChanged) Event() *types.Event {
	return &types.Event{Type: TypeDefaultDelegateeChanged, Attributes: map[string]string{
		"old": formatAddress(e.Old),
		"new": formatAddress(e.New),
	}}
}

// GuardianChanged captures rotation of the delegatee guardian.
type GuardianChanged struct {
	Old crypto.Address
	New crypto.Address
}

// EventType satisfies the Event interface.
func (GuardianChanged) EventType() string { return TypeGuardianChanged }

// Event converts the structured payload into a broadcastable event.
func (e GuardianChanged) Event() *types.Event {
	return &types.Event{Type: TypeGuardianChanged, Attributes: map[string]string{
		"old": formatAddress(e.Old),
		"new": formatAddress(e.New),
	}}
}
