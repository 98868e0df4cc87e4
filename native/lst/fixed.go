package lst

import (
	"math/big"

	"stakeshare/core/events"
	"stakeshare/crypto"
)

// The fixed-balance pass-through serves the paired wrapper contract that
// presents a non-rebasing view of the token. Every entry point is restricted
// to the single configured wrapper address; the wrapper keeps its own
// per-user ledger of the shares parked on its record here.

func (e *Engine) requireFixedCaller(caller crypto.Address) (*Settings, error) {
	s, err := e.settings()
	if err != nil {
		return nil, err
	}
	if s.FixedCaller.IsZero() || !caller.Equal(s.FixedCaller) {
		return nil, errUnauthorizedFixed
	}
	return s, nil
}

// StakeAndConvertToFixed stakes amount out of holder's token account and
// parks the minted shares on the wrapper's record. Returns the minted shares.
func (e *Engine) StakeAndConvertToFixed(caller, holder crypto.Address, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.requireFixedCaller(caller); err != nil {
		return nil, err
	}
	if holder.IsZero() {
		return nil, errMissingAddress
	}
	_, minted, err := e.stakeInternal(holder, caller, amount)
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// ConvertToFixed moves amount worth of the holder's rebasing balance onto the
// wrapper's record, charging the holder the rounded-up share cost. Returns
// the shares moved.
func (e *Engine) ConvertToFixed(caller, holder crypto.Address, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.requireFixedCaller(caller); err != nil {
		return nil, err
	}
	_, _, moved, err := e.transferValue(holder, caller, amount)
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// ConvertToRebasing returns shares from the wrapper's record to the holder's
// rebasing balance. Returns the stake value released.
func (e *Engine) ConvertToRebasing(caller, holder crypto.Address, shares *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.requireFixedCaller(caller); err != nil {
		return nil, err
	}
	return e.transferShares(caller, holder, shares)
}

// TransferFixed moves an exact share quantity between two records on the
// wrapper's authority. Returns the stake value the shares redeem for.
func (e *Engine) TransferFixed(caller, from, to crypto.Address, shares *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.requireFixedCaller(caller); err != nil {
		return nil, err
	}
	return e.transferShares(from, to, shares)
}

// transferShares moves an exact share quantity and settles the backing stake
// like a value transfer, with the transfer event carrying the redeemed value.
func (e *Engine) transferShares(sender, receiver crypto.Address, shares *big.Int) (*big.Int, error) {
	if sender.IsZero() || receiver.IsZero() {
		return nil, errMissingAddress
	}
	if shares == nil || shares.Sign() < 0 {
		return nil, errInvalidAmount
	}
	s, err := e.settings()
	if err != nil {
		return nil, err
	}
	totals, err := e.totals()
	if err != nil {
		return nil, err
	}
	value := StakeForShares(shares, totals)
	if sender.Equal(receiver) {
		e.emit(events.Transfer{From: sender, To: receiver, Value: value})
		return value, nil
	}
	senderRec, err := e.holder(sender)
	if err != nil {
		return nil, err
	}
	receiverRec, err := e.holder(receiver)
	if err != nil {
		return nil, err
	}
	if shares.Cmp(senderRec.Shares) > 0 {
		return nil, errInsufficientBalance
	}

	senderLive := BalanceOf(senderRec, totals)
	senderRec.Shares = new(big.Int).Sub(senderRec.Shares, shares)
	receiverRec.Shares = new(big.Int).Add(receiverRec.Shares, shares)
	senderNew := BalanceOf(senderRec, totals)
	senderDecrease := new(big.Int).Sub(senderLive, senderNew)

	if receiverRec.Deposit != 0 {
		receiverRec.Checkpoint = new(big.Int).Add(receiverRec.Checkpoint, value)
	}
	if err := e.settleTransfer(s, senderRec, receiverRec, senderLive, senderNew, senderDecrease); err != nil {
		return nil, err
	}
	if err := e.state.PutHolder(senderRec); err != nil {
		return nil, err
	}
	if err := e.state.PutHolder(receiverRec); err != nil {
		return nil, err
	}
	e.emit(events.Transfer{From: sender, To: receiver, Value: new(big.Int).Set(value)})
	return value, nil
}
