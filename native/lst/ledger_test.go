package lst

import (
	"math/big"
	"math/rand"
	"testing"
)

func totals(supply, shares int64) *Totals {
	return &Totals{Supply: big.NewInt(supply), Shares: big.NewInt(shares)}
}

func TestSharesForStakeEmptyPoolScales(t *testing.T) {
	got := SharesForStake(big.NewInt(7), totals(0, 0))
	want := new(big.Int).Mul(big.NewInt(7), ShareScale)
	if got.Cmp(want) != 0 {
		t.Fatalf("empty pool mint: got %s want %s", got, want)
	}
}

func TestSharesForStakeRoundsDown(t *testing.T) {
	// 10 * 3 / 7 = 4 remainder 2
	got := SharesForStake(big.NewInt(10), totals(7, 3))
	if got.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("floor conversion: got %s want 4", got)
	}
}

func TestSharesForStakeCeilAddsRemainder(t *testing.T) {
	got := SharesForStakeCeil(big.NewInt(10), totals(7, 3))
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("ceil conversion: got %s want 5", got)
	}
	// Exact division must not round up.
	exact := SharesForStakeCeil(big.NewInt(14), totals(7, 3))
	if exact.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("exact ceil conversion: got %s want 6", exact)
	}
}

func TestStakeForSharesRoundsDown(t *testing.T) {
	// 5 * 7 / 3 = 11 remainder 2
	got := StakeForShares(big.NewInt(5), totals(7, 3))
	if got.Cmp(big.NewInt(11)) != 0 {
		t.Fatalf("redeem conversion: got %s want 11", got)
	}
}

func TestStakeForSharesEmptyShareSupply(t *testing.T) {
	shares := new(big.Int).Mul(big.NewInt(9), ShareScale)
	got := StakeForShares(shares, totals(0, 0))
	if got.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("empty pool redeem: got %s want 9", got)
	}
}

func TestBalanceOfNilRecord(t *testing.T) {
	if got := BalanceOf(nil, totals(100, 100)); got.Sign() != 0 {
		t.Fatalf("nil record balance: got %s want 0", got)
	}
}

func TestZeroAmountsConvertToZero(t *testing.T) {
	tt := totals(1000, 900)
	if got := SharesForStake(big.NewInt(0), tt); got.Sign() != 0 {
		t.Fatalf("zero stake minted %s shares", got)
	}
	if got := SharesForStakeCeil(big.NewInt(0), tt); got.Sign() != 0 {
		t.Fatalf("zero stake ceil minted %s shares", got)
	}
	if got := StakeForShares(big.NewInt(0), tt); got.Sign() != 0 {
		t.Fatalf("zero shares redeemed %s", got)
	}
}

// A mint-then-redeem round trip loses at most a bounded truncation remainder
// and never gains.
func TestRoundTripTruncationBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		supply := big.NewInt(rng.Int63n(1_000_000_000) + 1)
		shares := big.NewInt(rng.Int63n(1_000_000_000) + 1)
		tt := &Totals{Supply: supply, Shares: shares}
		amount := big.NewInt(rng.Int63n(1_000_000) + 1)

		minted := SharesForStake(amount, tt)
		back := StakeForShares(minted, tt)
		if back.Cmp(amount) > 0 {
			t.Fatalf("round trip gained value: %s -> %s (supply=%s shares=%s)", amount, back, supply, shares)
		}
		loss := new(big.Int).Sub(amount, back)
		// One floor on mint plus one floor on redeem loses strictly less
		// than one unit of stake per floor.
		if loss.Cmp(big.NewInt(2)) > 0 {
			ratio := new(big.Int).Quo(supply, shares)
			if loss.Cmp(new(big.Int).Add(ratio, big.NewInt(2))) > 0 {
				t.Fatalf("round trip lost %s (amount=%s supply=%s shares=%s)", loss, amount, supply, shares)
			}
		}
	}
}

// Charging the ceil never undercharges: the shares burned for an amount
// always redeem for at least that amount.
func TestCeilNeverUndercharges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		supply := big.NewInt(rng.Int63n(1_000_000_000) + 1)
		shares := big.NewInt(rng.Int63n(1_000_000_000) + 1)
		tt := &Totals{Supply: supply, Shares: shares}
		amount := big.NewInt(rng.Int63n(1_000_000) + 1)

		burned := SharesForStakeCeil(amount, tt)
		worth := StakeForShares(burned, tt)
		if worth.Cmp(amount) < 0 {
			t.Fatalf("ceil undercharged: %s shares worth %s < %s", burned, worth, amount)
		}
	}
}
