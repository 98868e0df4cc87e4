package lst

import (
	"math/big"

	"stakeshare/core/events"
	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// ClaimAndDistributeReward settles one round of the permissionless reward
// auction: the caller pays the configured payout amount of stake token into
// the default deposit (growing everyone's balance) and takes the yield
// accrued on the listed deposits in exchange. minExpected protects the caller
// against being front-run; an empty deposit list claims from the default
// deposit only. The claimed total is returned.
func (e *Engine) ClaimAndDistributeReward(caller, recipient crypto.Address, minExpected *big.Int, depositIDs []staker.DepositID) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if caller.IsZero() || recipient.IsZero() {
		return nil, errMissingAddress
	}
	s, err := e.settings()
	if err != nil {
		return nil, err
	}
	payout := s.Reward.PayoutAmount

	ids := depositIDs
	if len(ids) == 0 {
		ids = []staker.DepositID{s.DefaultDeposit}
	}

	// Preview the claimable total before touching any state so the whole
	// operation can still fail atomically on the caller's minimum.
	expected := big.NewInt(0)
	for _, id := range ids {
		accrued, err := e.staker.AccruedReward(id)
		if err != nil {
			return nil, err
		}
		expected = expected.Add(expected, accrued)
	}
	if minExpected != nil && expected.Cmp(minExpected) < 0 {
		return nil, errInsufficientRewards
	}

	acct, err := e.loadAccount(caller)
	if err != nil {
		return nil, err
	}
	if acct.Balance.Cmp(payout) < 0 {
		return nil, errInsufficientFunds
	}
	totals, err := e.totals()
	if err != nil {
		return nil, err
	}
	// A payout with no shares outstanding would strand supply nobody can
	// redeem, and every later stake would mint zero shares against it.
	if payout.Sign() > 0 && totals.Shares.Sign() == 0 {
		return nil, errNoSharesOutstanding
	}

	// Fee shares are sized so that after the payout lands the collector's
	// claim redeems for exactly the fee amount in integer-floor terms.
	fee := new(big.Int).Mul(payout, new(big.Int).SetUint64(s.Reward.FeeBips))
	fee = fee.Quo(fee, bipsDenominator)
	var feeShares *big.Int
	var collector *HolderRecord
	if fee.Sign() > 0 {
		newSupply := new(big.Int).Add(totals.Supply, payout)
		feeShares = new(big.Int).Mul(fee, totals.Shares)
		feeShares = feeShares.Quo(feeShares, new(big.Int).Sub(newSupply, fee))
		collector, err = e.holder(s.Reward.FeeCollector)
		if err != nil {
			return nil, err
		}
		collector.Shares = new(big.Int).Add(collector.Shares, feeShares)
		totals.Shares = new(big.Int).Add(totals.Shares, feeShares)
	}
	totals.Supply = new(big.Int).Add(totals.Supply, payout)
	acct.Balance = new(big.Int).Sub(acct.Balance, payout)

	claimed := big.NewInt(0)
	for _, id := range ids {
		got, err := e.staker.ClaimReward(id)
		if err != nil {
			return nil, err
		}
		claimed = claimed.Add(claimed, got)
	}
	if payout.Sign() > 0 {
		if err := e.staker.StakeMore(s.DefaultDeposit, payout); err != nil {
			return nil, err
		}
	}

	if err := e.state.PutAccount(caller, acct); err != nil {
		return nil, err
	}
	// Load the recipient after persisting the caller so self-claims see the
	// payout debit.
	recipientAcct, err := e.loadAccount(recipient)
	if err != nil {
		return nil, err
	}
	recipientAcct.Balance = new(big.Int).Add(recipientAcct.Balance, claimed)
	if err := e.state.PutAccount(recipient, recipientAcct); err != nil {
		return nil, err
	}
	if err := e.state.PutTotals(totals); err != nil {
		return nil, err
	}
	if collector != nil {
		if err := e.state.PutHolder(collector); err != nil {
			return nil, err
		}
	}

	e.emit(events.RewardDistributed{
		Claimer:      caller,
		Recipient:    recipient,
		Claimed:      new(big.Int).Set(claimed),
		Payout:       new(big.Int).Set(payout),
		Fee:          fee,
		FeeCollector: s.Reward.FeeCollector,
	})
	return claimed, nil
}
