package lst

import (
	"math/big"
	"math/rand"
	"sort"
	"testing"

	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// Randomized stake/unstake/transfer/delegate/reward sequence. After every
// operation the ledger must stay solvent: physical deposit balances cover the
// supply, redeemable balances never exceed it, each delegated deposit covers
// the checkpoints pinned to it, and no checkpoint outruns its holder's live
// balance by more than the truncation tolerance.
func TestInvariantsUnderRandomOperationSequence(t *testing.T) {
	engine, state, ledger := newTestEngine(t)
	rng := rand.New(rand.NewSource(1234))

	extraDelegatee := makeAddress(0x2a)
	if err := ledger.SetDelegateeScore(extraDelegatee, 10_000); err != nil {
		t.Fatalf("set score: %v", err)
	}
	holders := []crypto.Address{testHolderA, testHolderB, makeAddress(0x1a), makeAddress(0x1b)}
	delegatees := []crypto.Address{{}, testDefault, testDelegatee, extraDelegatee}
	for _, h := range holders {
		fund(t, state, h, 1_000_000)
	}
	claimer := makeAddress(0x3c)
	fund(t, state, claimer, 1_000_000)
	setPayout(t, engine, 50, 500)

	tolerance := big.NewInt(2)
	tracked := append(append([]crypto.Address{}, holders...), testCollector)

	check := func(step int) {
		t.Helper()
		supply, err := engine.TotalSupply()
		if err != nil {
			t.Fatalf("step %d: totals: %v", step, err)
		}
		physical := big.NewInt(0)
		for id := range state.deposits {
			physical.Add(physical, depositBalance(t, state, id))
		}
		if physical.Cmp(supply) != 0 {
			t.Fatalf("step %d: physical %s != supply %s", step, physical, supply)
		}

		s, _ := engine.SettingsView()
		redeemable := big.NewInt(0)
		pinned := make(map[staker.DepositID]*big.Int)
		for _, addr := range tracked {
			live := balanceOf(t, engine, addr)
			redeemable.Add(redeemable, live)
			rec, err := engine.HolderView(addr)
			if err != nil {
				t.Fatalf("step %d: holder view: %v", step, err)
			}
			if rec == nil || rec.Deposit == 0 {
				continue
			}
			bound := new(big.Int).Add(live, tolerance)
			if rec.Checkpoint.Cmp(bound) > 0 {
				t.Fatalf("step %d: checkpoint %s outruns balance %s", step, rec.Checkpoint, live)
			}
			sum, ok := pinned[rec.Deposit]
			if !ok {
				sum = big.NewInt(0)
			}
			pinned[rec.Deposit] = sum.Add(sum, rec.Checkpoint)
		}
		if redeemable.Cmp(supply) > 0 {
			t.Fatalf("step %d: redeemable %s exceeds supply %s", step, redeemable, supply)
		}
		for id, sum := range pinned {
			if id == s.DefaultDeposit {
				continue
			}
			if depositBalance(t, state, id).Cmp(sum) < 0 {
				t.Fatalf("step %d: deposit %d balance %s below pinned checkpoints %s",
					step, id, depositBalance(t, state, id), sum)
			}
		}
	}

	liveDeposits := func() []staker.DepositID {
		ids := make([]staker.DepositID, 0, len(state.deposits))
		for id := range state.deposits {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return ids
	}

	for i := 0; i < 400; i++ {
		// Every branch may fail on a legitimate precondition (overdraw,
		// empty pool); atomicity means failures leave state untouched and
		// the invariants must hold either way.
		switch rng.Intn(6) {
		case 0:
			_, _ = engine.Stake(holders[rng.Intn(len(holders))], big.NewInt(rng.Int63n(2_000)+1))
		case 1:
			_, _ = engine.Unstake(holders[rng.Intn(len(holders))], big.NewInt(rng.Int63n(2_000)+1))
		case 2:
			from := holders[rng.Intn(len(holders))]
			to := holders[rng.Intn(len(holders))]
			_ = engine.Transfer(from, to, big.NewInt(rng.Int63n(1_500)+1))
		case 3:
			h := holders[rng.Intn(len(holders))]
			_ = engine.UpdateDelegation(h, delegatees[rng.Intn(len(delegatees))])
		case 4:
			ids := liveDeposits()
			if len(ids) > 0 {
				_ = ledger.AccrueReward(ids[rng.Intn(len(ids))], big.NewInt(rng.Int63n(200)+1))
			}
		case 5:
			_, _ = engine.ClaimAndDistributeReward(claimer, claimer, nil, nil)
		}
		check(i)
	}
}
