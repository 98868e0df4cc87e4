package lst

import (
	"math/big"

	"github.com/holiman/uint256"
)

// TokenDecimals is the fixed decimal precision of the rebasing token surface.
const TokenDecimals uint8 = 18

// shareScale is the fixed multiplier between one unit of stake and the shares
// minted for it while the pool is empty. Scaling shares up keeps truncation
// loss at the far end of the precision range.
var shareScale = uint256.NewInt(1e18)

// ShareScale exposes the scale factor for callers that need to reason about
// raw share quantities.
var ShareScale = shareScale.ToBig()

func toU256(v *big.Int) *uint256.Int {
	if v == nil || v.Sign() <= 0 {
		return new(uint256.Int)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		// Totals are bounded well inside 256 bits (supply <= 2^96,
		// shares <= 2^160); an overflowing input is a corrupted record.
		panic("lst: amount exceeds 256 bits")
	}
	return u
}

func totalsU256(t *Totals) (supply, shares *uint256.Int) {
	if t == nil {
		return new(uint256.Int), new(uint256.Int)
	}
	return toU256(t.Supply), toU256(t.Shares)
}

// SharesForStake converts a stake amount into shares at the current exchange
// rate, rounding down. Round-down on mint keeps truncation on the pool's side.
func SharesForStake(amount *big.Int, t *Totals) *big.Int {
	a := toU256(amount)
	if a.IsZero() {
		return big.NewInt(0)
	}
	supply, shares := totalsU256(t)
	if supply.IsZero() {
		return new(uint256.Int).Mul(a, shareScale).ToBig()
	}
	product, _ := new(uint256.Int).MulOverflow(a, shares)
	return product.Div(product, supply).ToBig()
}

// SharesForStakeCeil converts a stake amount into shares, rounding up when
// the division truncates. Used whenever shares are destroyed or moved out of
// a holder, so the holder is never under-charged. The remainder test uses
// MulMod so the full 512-bit product never needs materialising.
func SharesForStakeCeil(amount *big.Int, t *Totals) *big.Int {
	a := toU256(amount)
	if a.IsZero() {
		return big.NewInt(0)
	}
	supply, shares := totalsU256(t)
	if supply.IsZero() {
		return new(uint256.Int).Mul(a, shareScale).ToBig()
	}
	product, _ := new(uint256.Int).MulOverflow(a, shares)
	out := new(uint256.Int).Div(product, supply)
	if !new(uint256.Int).MulMod(a, shares, supply).IsZero() {
		out.Add(out, uint256.NewInt(1))
	}
	return out.ToBig()
}

// StakeForShares converts shares into the stake amount they redeem for,
// always rounding down.
func StakeForShares(shares *big.Int, t *Totals) *big.Int {
	s := toU256(shares)
	if s.IsZero() {
		return big.NewInt(0)
	}
	supply, total := totalsU256(t)
	if total.IsZero() {
		return new(uint256.Int).Div(s, shareScale).ToBig()
	}
	product, _ := new(uint256.Int).MulOverflow(s, supply)
	return product.Div(product, total).ToBig()
}

// BalanceOf resolves a holder record to its live balance under the supplied
// totals.
func BalanceOf(rec *HolderRecord, t *Totals) *big.Int {
	if rec == nil || rec.Shares == nil || rec.Shares.Sign() == 0 {
		return big.NewInt(0)
	}
	return StakeForShares(rec.Shares, t)
}
