package lst

import (
	"math/big"

	"stakeshare/core/events"
	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// mintTipShares dilutes every holder to pay tip worth of stake to receiver,
// using the same sizing rule as the reward fee: the minted shares redeem for
// exactly tip in integer-floor terms against the current totals.
func (e *Engine) mintTipShares(s *Settings, totals *Totals, receiver crypto.Address, tip *big.Int) (*HolderRecord, error) {
	if tip == nil || tip.Sign() < 0 {
		return nil, errInvalidAmount
	}
	if tip.Cmp(s.MaxOverrideTip) > 0 {
		return nil, errTipExceedsMax
	}
	if tip.Sign() == 0 {
		return nil, nil
	}
	if receiver.IsZero() {
		return nil, errMissingAddress
	}
	if tip.Cmp(totals.Supply) >= 0 {
		return nil, errInvalidAmount
	}
	tipShares := new(big.Int).Mul(tip, totals.Shares)
	tipShares = tipShares.Quo(tipShares, new(big.Int).Sub(totals.Supply, tip))
	rec, err := e.holder(receiver)
	if err != nil {
		return nil, err
	}
	rec.Shares = new(big.Int).Add(rec.Shares, tipShares)
	totals.Shares = new(big.Int).Add(totals.Shares, tipShares)
	return rec, nil
}

func (e *Engine) persistTip(totals *Totals, rec *HolderRecord) error {
	if rec == nil {
		return nil
	}
	if err := e.state.PutTotals(totals); err != nil {
		return err
	}
	return e.state.PutHolder(rec)
}

// EnactOverride redirects an underperforming deposit's voting weight to the
// default delegatee. Permissionless: the tip is the incentive for whoever
// notices the deposit has fallen below the qualification threshold.
func (e *Engine) EnactOverride(id staker.DepositID, tipReceiver crypto.Address, requestedTip *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if id == s.DefaultDeposit {
		return errDepositIsDefault
	}
	dep, err := e.staker.Deposit(id)
	if err != nil {
		return err
	}
	if !dep.Owner.Equal(e.moduleAddress) {
		return errDepositNotOwned
	}
	existing, err := e.state.Override(id)
	if err != nil {
		return err
	}
	if existing != nil {
		return errDepositOverridden
	}
	if dep.Balance.Sign() == 0 {
		return errDepositEmpty
	}
	// Eligible only when strictly below the threshold.
	lhs := new(big.Int).Mul(dep.EarningPower, bipsDenominator)
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(s.MinQualifyingBips), dep.Balance)
	if lhs.Cmp(rhs) >= 0 {
		return errDepositQualified
	}

	totals, err := e.totals()
	if err != nil {
		return err
	}
	tipRec, err := e.mintTipShares(s, totals, tipReceiver, requestedTip)
	if err != nil {
		return err
	}
	if err := e.staker.AlterDelegatee(id, s.DefaultDelegatee); err != nil {
		return err
	}
	if err := e.state.PutOverride(&OverrideRecord{
		Deposit:     id,
		Original:    dep.Delegatee,
		DelegatedTo: s.DefaultDelegatee,
	}); err != nil {
		return err
	}
	if err := e.persistTip(totals, tipRec); err != nil {
		return err
	}
	e.emit(events.OverrideEnacted{
		Deposit:           uint64(id),
		OriginalDelegatee: dep.Delegatee,
		TipReceiver:       tipReceiver,
		Tip:               requestedTip,
	})
	return nil
}

// RevokeOverride restores an overridden deposit to its original delegatee
// once the delegatee qualifies again.
func (e *Engine) RevokeOverride(id staker.DepositID, originalDelegatee, tipReceiver crypto.Address, requestedTip *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	record, err := e.state.Override(id)
	if err != nil {
		return err
	}
	if record == nil {
		return errNotOverridden
	}
	if !record.Original.Equal(originalDelegatee) {
		return errOverrideMismatch
	}
	dep, err := e.staker.Deposit(id)
	if err != nil {
		return err
	}
	// The original delegatee must clear the threshold before weight returns.
	// The deposit currently points at the default, so its stored earning
	// power says nothing about the original; probe it prospectively.
	if s.MinQualifyingBips > 0 && dep.Balance.Sign() > 0 {
		power, err := e.staker.EarningPower(dep.Balance, originalDelegatee)
		if err != nil {
			return err
		}
		lhs := new(big.Int).Mul(power, bipsDenominator)
		rhs := new(big.Int).Mul(new(big.Int).SetUint64(s.MinQualifyingBips), dep.Balance)
		if lhs.Cmp(rhs) < 0 {
			return errDepositNotQualified
		}
	}

	totals, err := e.totals()
	if err != nil {
		return err
	}
	tipRec, err := e.mintTipShares(s, totals, tipReceiver, requestedTip)
	if err != nil {
		return err
	}
	if err := e.staker.AlterDelegatee(id, originalDelegatee); err != nil {
		return err
	}
	if err := e.state.DeleteOverride(id); err != nil {
		return err
	}
	if err := e.persistTip(totals, tipRec); err != nil {
		return err
	}
	e.emit(events.OverrideRevoked{
		Deposit:     uint64(id),
		Delegatee:   originalDelegatee,
		TipReceiver: tipReceiver,
		Tip:         requestedTip,
	})
	return nil
}

// MigrateOverride re-points a still-overridden deposit at the current
// default delegatee after the default has rotated.
func (e *Engine) MigrateOverride(id staker.DepositID, tipReceiver crypto.Address, requestedTip *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	record, err := e.state.Override(id)
	if err != nil {
		return err
	}
	if record == nil {
		return errNotOverridden
	}
	if record.DelegatedTo.Equal(s.DefaultDelegatee) {
		return errOverrideCurrent
	}

	totals, err := e.totals()
	if err != nil {
		return err
	}
	tipRec, err := e.mintTipShares(s, totals, tipReceiver, requestedTip)
	if err != nil {
		return err
	}
	if err := e.staker.AlterDelegatee(id, s.DefaultDelegatee); err != nil {
		return err
	}
	record.DelegatedTo = s.DefaultDelegatee
	if err := e.state.PutOverride(record); err != nil {
		return err
	}
	if err := e.persistTip(totals, tipRec); err != nil {
		return err
	}
	e.emit(events.OverrideMigrated{
		Deposit:      uint64(id),
		NewDelegatee: s.DefaultDelegatee,
		TipReceiver:  tipReceiver,
		Tip:          requestedTip,
	})
	return nil
}

// IsOverridden reports whether the deposit currently carries an override flag.
func (e *Engine) IsOverridden(id staker.DepositID) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	record, err := e.state.Override(id)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}
