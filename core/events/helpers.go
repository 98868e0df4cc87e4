package events

import (
	"math/big"

	"stakeshare/crypto"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(a crypto.Address) string {
	if a.IsZero() {
		return ""
	}
	return a.String()
}
