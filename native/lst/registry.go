package lst

import (
	"stakeshare/core/events"
	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// DepositForDelegatee resolves the deposit backing delegatee without creating
// one. A zero delegatee and the current default delegatee both resolve to the
// default deposit; the default handle is derived, never stored under its own
// key.
func (e *Engine) DepositForDelegatee(delegatee crypto.Address) (staker.DepositID, bool, error) {
	if err := e.ready(); err != nil {
		return 0, false, err
	}
	s, err := e.settings()
	if err != nil {
		return 0, false, err
	}
	if delegatee.IsZero() || delegatee.Equal(s.DefaultDelegatee) {
		return s.DefaultDeposit, true, nil
	}
	return e.state.DepositFor(delegatee)
}

// FetchOrInitDeposit resolves the deposit backing delegatee, asking the
// staking ledger to open a fresh zero-balance deposit on first use.
// Idempotent: repeated calls return the same handle.
func (e *Engine) FetchOrInitDeposit(delegatee crypto.Address) (staker.DepositID, error) {
	if delegatee.IsZero() {
		return 0, errMissingDelegatee
	}
	id, ok, err := e.DepositForDelegatee(delegatee)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}
	id, err = e.staker.Stake(e.moduleAddress, bigZero(), delegatee)
	if err != nil {
		return 0, err
	}
	if err := e.state.PutDepositFor(delegatee, id); err != nil {
		return 0, err
	}
	e.emit(events.DepositInitialized{Delegatee: delegatee, Deposit: uint64(id)})
	return id, nil
}

// delegationAuth enforces the one-way owner -> guardian privilege handover on
// delegation settings. The guardian's first action flips control; from then
// on the owner is locked out.
func (e *Engine) delegationAuth(s *Settings, caller crypto.Address) error {
	switch s.Control {
	case GuardianControlled:
		if !caller.Equal(s.Guardian) {
			return errUnauthorized
		}
	default:
		if !s.Guardian.IsZero() && caller.Equal(s.Guardian) {
			s.Control = GuardianControlled
			return nil
		}
		if !caller.Equal(s.Owner) {
			return errUnauthorized
		}
	}
	return nil
}

// SetDefaultDelegatee rotates the default delegatee. The default deposit
// handle is fixed at construction, so the rotation re-points the existing
// deposit's voting weight. Deposits overridden against the old default stay
// flagged and become eligible for migration.
func (e *Engine) SetDefaultDelegatee(caller, delegatee crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if delegatee.IsZero() {
		return errMissingDelegatee
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if err := e.delegationAuth(s, caller); err != nil {
		return err
	}
	old := s.DefaultDelegatee
	if err := e.staker.AlterDelegatee(s.DefaultDeposit, delegatee); err != nil {
		return err
	}
	s.DefaultDelegatee = delegatee
	if err := e.state.PutSettings(s); err != nil {
		return err
	}
	e.emit(events.DefaultDelegateeChanged{Old: old, New: delegatee})
	return nil
}

// SetGuardian rotates the delegatee guardian under the same one-way
// privilege rule.
func (e *Engine) SetGuardian(caller, guardian crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if err := e.delegationAuth(s, caller); err != nil {
		return err
	}
	old := s.Guardian
	s.Guardian = guardian
	if err := e.state.PutSettings(s); err != nil {
		return err
	}
	e.emit(events.GuardianChanged{Old: old, New: guardian})
	return nil
}
