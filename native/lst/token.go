package lst

import (
	"math/big"

	"stakeshare/core/events"
	"stakeshare/crypto"
)

// Name returns the token name.
func (e *Engine) Name() string { return e.tokenName }

// Symbol returns the token symbol.
func (e *Engine) Symbol() string { return e.tokenSymbol }

// Decimals returns the fixed decimal precision.
func (e *Engine) Decimals() uint8 { return TokenDecimals }

// TotalSupply returns the aggregate stake the engine holds.
func (e *Engine) TotalSupply() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	t, err := e.totals()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(t.Supply), nil
}

// TotalShares returns the outstanding share count.
func (e *Engine) TotalShares() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	t, err := e.totals()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(t.Shares), nil
}

// BalanceOf resolves a holder's live, rebasing balance.
func (e *Engine) BalanceOf(addr crypto.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	t, err := e.totals()
	if err != nil {
		return nil, err
	}
	rec, err := e.holder(addr)
	if err != nil {
		return nil, err
	}
	return BalanceOf(rec, t), nil
}

// SharesOf returns a holder's raw share count.
func (e *Engine) SharesOf(addr crypto.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	rec, err := e.holder(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(rec.Shares), nil
}

// HolderView returns a copy of the holder's accounting record.
func (e *Engine) HolderView(addr crypto.Address) (*HolderRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	rec, err := e.holder(addr)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Approve grants spender the right to move up to value of owner's balance.
func (e *Engine) Approve(owner, spender crypto.Address, value *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() || spender.IsZero() {
		return errMissingAddress
	}
	if value == nil || value.Sign() < 0 {
		return errInvalidAmount
	}
	if err := e.state.PutAllowance(owner, spender, new(big.Int).Set(value)); err != nil {
		return err
	}
	e.emit(events.Approval{Owner: owner, Spender: spender, Value: new(big.Int).Set(value)})
	return nil
}

// Allowance returns the remaining amount spender may move on owner's behalf.
func (e *Engine) Allowance(owner, spender crypto.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	v, err := e.state.Allowance(owner, spender)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(v), nil
}

// TransferFrom moves value from holder `from` to `to` on the authority of a
// previously granted allowance to spender.
func (e *Engine) TransferFrom(spender, from, to crypto.Address, value *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if spender.IsZero() {
		return errMissingAddress
	}
	if value == nil || value.Sign() < 0 {
		return errInvalidAmount
	}
	allowed, err := e.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowed.Cmp(value) < 0 {
		return errInsufficientAllowance
	}
	if _, _, _, err := e.transferValue(from, to, value); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(allowed, value)
	return e.state.PutAllowance(from, spender, remaining)
}
