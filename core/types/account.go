package types

import "math/big"

// Account tracks the liquid stake-token balance an address holds outside the
// engine. The engine debits it when stake enters a deposit and credits it when
// an unstake or a matured withdrawal releases funds.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// EnsureDefaults normalises nil balance fields after decoding.
func (a *Account) EnsureDefaults() {
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
}
