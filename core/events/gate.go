package events

import (
	"math/big"
	"strconv"

	"stakeshare/core/types"
	"stakeshare/crypto"
)

const (
	// TypeWithdrawalInitiated is emitted when unstaked funds enter the delay gate.
	TypeWithdrawalInitiated = "gate.withdrawalInitiated"
	// TypeWithdrawalCompleted is emitted when a matured withdrawal is released.
	TypeWithdrawalCompleted = "gate.withdrawalCompleted"
	// TypeDelayChanged is emitted when the owner adjusts the release delay.
	TypeDelayChanged = "gate.delayChanged"
)

// WithdrawalInitiated captures funds entering the delay gate.
type WithdrawalInitiated struct {
	ID          uint64
	Receiver    crypto.Address
	Amount      *big.Int
	AvailableAt uint64
}

// EventType satisfies the Event interface.
func (WithdrawalInitiated) EventType() string { return TypeWithdrawalInitiated }

// Event converts the structured payload into a broadcastable event.
func (e WithdrawalInitiated) Event() *types.Event {
	return &types.Event{Type: TypeWithdrawalInitiated, Attributes: map[string]string{
		"id":          strconv.FormatUint(e.ID, 10),
		"receiver":    formatAddress(e.Receiver),
		"amount":      formatAmount(e.Amount),
		"availableAt": strconv.FormatUint(e.AvailableAt, 10),
	}}
}

// WithdrawalCompleted captures a matured withdrawal being paid out.
type WithdrawalCompleted struct {
	ID       uint64
	Receiver crypto.Address
	Amount   *big.Int
}

// EventType satisfies the Event interface.
func (WithdrawalCompleted) EventType() string { return TypeWithdrawalCompleted }

// Event converts the structured payload into a broadcastable event.
func (e WithdrawalCompleted) Event() *types.Event {
	return &types.Event{Type: TypeWithdrawalCompleted, Attributes: map[string]string{
		"id":       strconv.FormatUint(e.ID, 10),
		"receiver": formatAddress(e.Receiver),
		"amount":   formatAmount(e.Amount),
	}}
}

// DelayChanged records a new withdrawal delay taking effect.
type DelayChanged struct {
	OldSeconds uint64
	NewSeconds uint64
}

// EventType satisfies the Event interface.
func (DelayChanged) EventType() string { return TypeDelayChanged }

// Event converts the structured payload into a broadcastable event.
func (e DelayChanged) Event() *types.Event {
	return &types.Event{Type: TypeDelayChanged, Attributes: map[string]string{
		"oldSeconds": strconv.FormatUint(e.OldSeconds, 10),
		"newSeconds": strconv.FormatUint(e.NewSeconds, 10),
	}}
}
