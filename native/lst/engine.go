package lst

import (
	"math/big"
	"time"

	"stakeshare/core/events"
	"stakeshare/core/types"
	"stakeshare/crypto"
	"stakeshare/native/staker"
)

type engineState interface {
	Totals() (*Totals, error)
	PutTotals(t *Totals) error
	Holder(addr crypto.Address) (*HolderRecord, error)
	PutHolder(rec *HolderRecord) error
	Settings() (*Settings, error)
	PutSettings(s *Settings) error
	DepositFor(delegatee crypto.Address) (staker.DepositID, bool, error)
	PutDepositFor(delegatee crypto.Address, id staker.DepositID) error
	Account(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, acc *types.Account) error
	Allowance(owner, spender crypto.Address) (*big.Int, error)
	PutAllowance(owner, spender crypto.Address, value *big.Int) error
	PermitNonce(owner crypto.Address) (uint64, error)
	PutPermitNonce(owner crypto.Address, nonce uint64) error
	Override(id staker.DepositID) (*OverrideRecord, error)
	PutOverride(rec *OverrideRecord) error
	DeleteOverride(id staker.DepositID) error
}

// WithdrawalGate queues unstaked funds until a delay elapses. A zero delay
// (or a gate that fails to accept the withdrawal) routes funds straight to
// the holder instead.
type WithdrawalGate interface {
	DelaySeconds() (uint64, error)
	InitiateWithdrawal(amount *big.Int, receiver crypto.Address) (uint64, error)
}

// Engine is the holder accounting state machine. It owns every external
// deposit, keeps the global share totals and the per-holder records
// consistent with them, and routes physical stake between the default
// deposit and each holder's delegated deposit.
type Engine struct {
	state         engineState
	staker        staker.Ledger
	gate          WithdrawalGate
	emitter       events.Emitter
	moduleAddress crypto.Address
	tokenName     string
	tokenSymbol   string
	nowFn         func() time.Time
}

// NewEngine constructs an accounting engine bound to the module treasury
// address that owns all external deposits.
func NewEngine(moduleAddr crypto.Address) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		emitter:       events.NoopEmitter{},
		tokenName:     "Staked Share Token",
		tokenSymbol:   "sSHARE",
		nowFn:         time.Now,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetStaker wires the engine to the external staking ledger.
func (e *Engine) SetStaker(ledger staker.Ledger) { e.staker = ledger }

// SetGate wires the optional withdrawal-delay gate.
func (e *Engine) SetGate(gate WithdrawalGate) { e.gate = gate }

// SetEmitter wires the event sink. A nil emitter silences events.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetClock overrides the wall clock, used by permit deadline checks.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.nowFn = now
	}
}

// SetTokenMetadata configures the name and symbol of the token surface.
func (e *Engine) SetTokenMetadata(name, symbol string) {
	if name != "" {
		e.tokenName = name
	}
	if symbol != "" {
		e.tokenSymbol = symbol
	}
}

// ModuleAddress returns the treasury address owning all external deposits.
func (e *Engine) ModuleAddress() crypto.Address { return e.moduleAddress }

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.staker == nil {
		return errNilStaker
	}
	return nil
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

func (e *Engine) settings() (*Settings, error) {
	s, err := e.state.Settings()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNotInitialized
	}
	s.EnsureDefaults()
	return s, nil
}

func (e *Engine) totals() (*Totals, error) {
	t, err := e.state.Totals()
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = &Totals{}
	}
	t.EnsureDefaults()
	return t, nil
}

func (e *Engine) holder(addr crypto.Address) (*HolderRecord, error) {
	rec, err := e.state.Holder(addr)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &HolderRecord{Address: addr}
	}
	rec.EnsureDefaults()
	return rec, nil
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := e.state.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

// resolveDeposit maps a holder record to the deposit physically backing its
// delegated balance.
func (e *Engine) resolveDeposit(rec *HolderRecord, s *Settings) staker.DepositID {
	if rec == nil || rec.Deposit == 0 {
		return s.DefaultDeposit
	}
	return rec.Deposit
}

// clipCheckpoint bounds a checkpoint to the live balance so truncation can
// never leave a claim larger than the holder's redeemable stake.
func clipCheckpoint(checkpoint, live *big.Int) *big.Int {
	if checkpoint.Cmp(live) > 0 {
		return new(big.Int).Set(live)
	}
	return checkpoint
}

// Initialize opens the default deposit and records the governance settings.
// It must run exactly once per deployment.
func (e *Engine) Initialize(owner, guardian, defaultDelegatee crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() {
		return errMissingAddress
	}
	if defaultDelegatee.IsZero() {
		return errMissingDelegatee
	}
	existing, err := e.state.Settings()
	if err != nil {
		return err
	}
	if existing != nil {
		return errAlreadyInitialized
	}
	id, err := e.staker.Stake(e.moduleAddress, big.NewInt(0), defaultDelegatee)
	if err != nil {
		return err
	}
	s := &Settings{
		Owner:            owner,
		Guardian:         guardian,
		Control:          OwnerControlled,
		DefaultDelegatee: defaultDelegatee,
		DefaultDeposit:   id,
	}
	s.EnsureDefaults()
	if err := e.state.PutSettings(s); err != nil {
		return err
	}
	e.emit(events.DepositInitialized{Delegatee: defaultDelegatee, Deposit: uint64(id)})
	return nil
}

// Stake converts amount of the holder's stake-token balance into shares and
// pushes the stake into the holder's resolved deposit. The realised balance
// increase is returned; truncation guarantees it never exceeds amount.
func (e *Engine) Stake(holder crypto.Address, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if holder.IsZero() {
		return nil, errMissingAddress
	}
	diff, _, err := e.stakeInternal(holder, holder, amount)
	return diff, err
}

// stakeInternal debits payer's token account and mints the resulting shares
// onto recipient's record. Stake uses payer == recipient; the fixed wrapper
// pass-through stakes on behalf of a holder into its own record.
func (e *Engine) stakeInternal(payer, recipient crypto.Address, amount *big.Int) (*big.Int, *big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, errInvalidAmount
	}
	s, err := e.settings()
	if err != nil {
		return nil, nil, err
	}
	acct, err := e.loadAccount(payer)
	if err != nil {
		return nil, nil, err
	}
	if acct.Balance.Cmp(amount) < 0 {
		return nil, nil, errInsufficientFunds
	}
	totals, err := e.totals()
	if err != nil {
		return nil, nil, err
	}
	rec, err := e.holder(recipient)
	if err != nil {
		return nil, nil, err
	}

	initial := BalanceOf(rec, totals)
	minted := SharesForStake(amount, totals)
	totals.Supply = new(big.Int).Add(totals.Supply, amount)
	totals.Shares = new(big.Int).Add(totals.Shares, minted)
	rec.Shares = new(big.Int).Add(rec.Shares, minted)
	newBalance := BalanceOf(rec, totals)
	diff := new(big.Int).Sub(newBalance, initial)

	target := e.resolveDeposit(rec, s)
	if rec.Deposit != 0 {
		rec.Checkpoint = clipCheckpoint(new(big.Int).Add(rec.Checkpoint, amount), newBalance)
	}

	acct.Balance = new(big.Int).Sub(acct.Balance, amount)

	if err := e.staker.StakeMore(target, amount); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutAccount(payer, acct); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutTotals(totals); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutHolder(rec); err != nil {
		return nil, nil, err
	}

	e.emit(events.Staked{
		Holder:       recipient,
		Amount:       new(big.Int).Set(amount),
		SharesMinted: minted,
		NewShares:    new(big.Int).Set(rec.Shares),
		Deposit:      uint64(target),
	})
	e.emit(events.Transfer{To: recipient, Value: new(big.Int).Set(amount)})
	return diff, minted, nil
}

// UnstakeReceipt reports where an unstake routed its funds.
type UnstakeReceipt struct {
	Gated        bool
	WithdrawalID uint64
}

// Unstake burns shares worth amount (rounded against the holder) and releases
// the stake either directly to the holder's token account or through the
// withdrawal-delay gate when one is configured with a nonzero delay.
func (e *Engine) Unstake(holder crypto.Address, amount *big.Int) (*UnstakeReceipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if holder.IsZero() {
		return nil, errMissingAddress
	}
	if amount == nil || amount.Sign() <= 0 {
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
	rec, err := e.holder(holder)
	if err != nil {
		return nil, err
	}

	live := BalanceOf(rec, totals)
	if amount.Cmp(live) > 0 {
		return nil, errInsufficientBalance
	}
	burned := SharesForStakeCeil(amount, totals)

	// Split the withdrawal between the shared default deposit and the
	// holder's own deposit. Undelegated balance (reward accrual and any
	// stake that never left the default pool) drains first.
	fromDefault := new(big.Int).Set(amount)
	fromOwn := big.NewInt(0)
	if rec.Deposit != 0 {
		undelegated := new(big.Int).Sub(live, rec.Checkpoint)
		if undelegated.Sign() < 0 {
			undelegated = big.NewInt(0)
		}
		if amount.Cmp(undelegated) > 0 {
			fromDefault = undelegated
			fromOwn = new(big.Int).Sub(amount, undelegated)
			rec.Checkpoint = new(big.Int).Sub(rec.Checkpoint, fromOwn)
		}
	}

	totals.Supply = new(big.Int).Sub(totals.Supply, amount)
	totals.Shares = new(big.Int).Sub(totals.Shares, burned)
	rec.Shares = new(big.Int).Sub(rec.Shares, burned)
	newLive := BalanceOf(rec, totals)
	rec.Checkpoint = clipCheckpoint(rec.Checkpoint, newLive)

	if fromDefault.Sign() > 0 {
		if err := e.staker.Withdraw(s.DefaultDeposit, fromDefault); err != nil {
			return nil, err
		}
	}
	if fromOwn.Sign() > 0 {
		if err := e.staker.Withdraw(rec.Deposit, fromOwn); err != nil {
			return nil, err
		}
	}

	// Route the released stake. The gate is best-effort: any failure falls
	// back to a direct credit so funds can never strand.
	receipt := &UnstakeReceipt{}
	if e.gate != nil {
		if delay, err := e.gate.DelaySeconds(); err == nil && delay > 0 {
			if id, err := e.gate.InitiateWithdrawal(new(big.Int).Set(amount), holder); err == nil {
				receipt.Gated = true
				receipt.WithdrawalID = id
			}
		}
	}
	if !receipt.Gated {
		acct, err := e.loadAccount(holder)
		if err != nil {
			return nil, err
		}
		acct.Balance = new(big.Int).Add(acct.Balance, amount)
		if err := e.state.PutAccount(holder, acct); err != nil {
			return nil, err
		}
	}

	if err := e.state.PutTotals(totals); err != nil {
		return nil, err
	}
	if err := e.state.PutHolder(rec); err != nil {
		return nil, err
	}

	e.emit(events.Unstaked{
		Holder:       holder,
		Amount:       new(big.Int).Set(amount),
		SharesBurned: burned,
		NewShares:    new(big.Int).Set(rec.Shares),
		Gated:        receipt.Gated,
		WithdrawalID: receipt.WithdrawalID,
	})
	e.emit(events.Transfer{From: holder, Value: new(big.Int).Set(amount)})
	return receipt, nil
}

// Transfer moves value from sender to receiver. The emitted event carries the
// requested value; callers needing the realised deltas use TransferExact.
func (e *Engine) Transfer(sender, receiver crypto.Address, value *big.Int) error {
	_, _, _, err := e.transferValue(sender, receiver, value)
	return err
}

// TransferExact behaves like Transfer and reports the realised sender
// decrease and receiver increase. The decrease is always >= the increase;
// the residual is abandoned in the receiver's destination deposit.
func (e *Engine) TransferExact(sender, receiver crypto.Address, value *big.Int) (*big.Int, *big.Int, error) {
	senderDecrease, receiverIncrease, _, err := e.transferValue(sender, receiver, value)
	return senderDecrease, receiverIncrease, err
}

func (e *Engine) transferValue(sender, receiver crypto.Address, value *big.Int) (*big.Int, *big.Int, *big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, nil, nil, err
	}
	if sender.IsZero() || receiver.IsZero() {
		return nil, nil, nil, errMissingAddress
	}
	if value == nil || value.Sign() < 0 {
		return nil, nil, nil, errInvalidAmount
	}
	if sender.Equal(receiver) {
		e.emit(events.Transfer{From: sender, To: receiver, Value: new(big.Int).Set(value)})
		return big.NewInt(0), big.NewInt(0), big.NewInt(0), nil
	}
	s, err := e.settings()
	if err != nil {
		return nil, nil, nil, err
	}
	totals, err := e.totals()
	if err != nil {
		return nil, nil, nil, err
	}
	senderRec, err := e.holder(sender)
	if err != nil {
		return nil, nil, nil, err
	}
	receiverRec, err := e.holder(receiver)
	if err != nil {
		return nil, nil, nil, err
	}

	senderLive := BalanceOf(senderRec, totals)
	if value.Cmp(senderLive) > 0 {
		return nil, nil, nil, errInsufficientBalance
	}
	receiverLive := BalanceOf(receiverRec, totals)

	// One round-up for the combined move: the sender is charged at least
	// value worth of shares, total shares are unchanged.
	moved := SharesForStakeCeil(value, totals)
	senderRec.Shares = new(big.Int).Sub(senderRec.Shares, moved)
	receiverRec.Shares = new(big.Int).Add(receiverRec.Shares, moved)

	senderNew := BalanceOf(senderRec, totals)
	receiverNew := BalanceOf(receiverRec, totals)
	senderDecrease := new(big.Int).Sub(senderLive, senderNew)
	receiverIncrease := new(big.Int).Sub(receiverNew, receiverLive)

	if receiverRec.Deposit != 0 {
		receiverRec.Checkpoint = new(big.Int).Add(receiverRec.Checkpoint, value)
	}

	if err := e.settleTransfer(s, senderRec, receiverRec, senderLive, senderNew, senderDecrease); err != nil {
		return nil, nil, nil, err
	}

	if err := e.state.PutHolder(senderRec); err != nil {
		return nil, nil, nil, err
	}
	if err := e.state.PutHolder(receiverRec); err != nil {
		return nil, nil, nil, err
	}

	e.emit(events.Transfer{From: sender, To: receiver, Value: new(big.Int).Set(value)})
	return senderDecrease, receiverIncrease, moved, nil
}

// settleTransfer moves the physical stake backing a share transfer. Legs that
// would withdraw from and deposit into the same external deposit are skipped;
// whatever must move lands in the receiver's resolved deposit with a single
// stake call.
func (e *Engine) settleTransfer(s *Settings, senderRec, receiverRec *HolderRecord, senderLive, senderNew, senderDecrease *big.Int) error {
	senderResolved := e.resolveDeposit(senderRec, s)
	receiverResolved := e.resolveDeposit(receiverRec, s)
	if senderResolved == s.DefaultDeposit && receiverResolved == s.DefaultDeposit {
		// Fast path: everything already lives in the default deposit.
		return nil
	}

	undelegated := new(big.Int).Sub(senderLive, senderRec.Checkpoint)
	if undelegated.Sign() < 0 {
		undelegated = big.NewInt(0)
	}
	fromDefault := new(big.Int).Set(senderDecrease)
	fromOwn := big.NewInt(0)
	if senderRec.Deposit != 0 && senderDecrease.Cmp(undelegated) > 0 {
		fromDefault = undelegated
		fromOwn = new(big.Int).Sub(senderDecrease, undelegated)
		senderRec.Checkpoint = new(big.Int).Sub(senderRec.Checkpoint, fromOwn)
	}
	senderRec.Checkpoint = clipCheckpoint(senderRec.Checkpoint, senderNew)

	pushed := big.NewInt(0)
	if fromDefault.Sign() > 0 && receiverResolved != s.DefaultDeposit {
		if err := e.staker.Withdraw(s.DefaultDeposit, fromDefault); err != nil {
			return err
		}
		pushed = new(big.Int).Add(pushed, fromDefault)
	}
	if fromOwn.Sign() > 0 && senderResolved != receiverResolved {
		if err := e.staker.Withdraw(senderResolved, fromOwn); err != nil {
			return err
		}
		pushed = new(big.Int).Add(pushed, fromOwn)
	}
	if pushed.Sign() > 0 {
		if err := e.staker.StakeMore(receiverResolved, pushed); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDelegation points the holder's delegated balance at delegatee,
// lazily opening a deposit for it when needed. A zero delegatee or the
// current default delegatee resolves to the default deposit.
func (e *Engine) UpdateDelegation(holder, delegatee crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if delegatee.IsZero() || delegatee.Equal(s.DefaultDelegatee) {
		return e.UpdateDeposit(holder, s.DefaultDeposit)
	}
	id, err := e.FetchOrInitDeposit(delegatee)
	if err != nil {
		return err
	}
	return e.UpdateDeposit(holder, id)
}

// UpdateDeposit reassigns which external deposit carries the holder's
// delegated balance, consolidating any reward-accrued balance out of the
// default deposit along the way.
func (e *Engine) UpdateDeposit(holder crypto.Address, id staker.DepositID) error {
	if err := e.ready(); err != nil {
		return err
	}
	if holder.IsZero() {
		return errMissingAddress
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	dep, err := e.staker.Deposit(id)
	if err != nil {
		return err
	}
	if !dep.Owner.Equal(e.moduleAddress) {
		return errDepositNotOwned
	}
	newIsDefault := id == s.DefaultDeposit
	if !newIsDefault {
		if err := e.requireQualified(s, id, dep); err != nil {
			return err
		}
	}

	totals, err := e.totals()
	if err != nil {
		return err
	}
	rec, err := e.holder(holder)
	if err != nil {
		return err
	}
	live := BalanceOf(rec, totals)
	old := e.resolveDeposit(rec, s)

	switch {
	case live.Sign() == 0:
		// Nothing staked yet: a pure metadata write.
		if newIsDefault {
			rec.Deposit = 0
		} else {
			rec.Deposit = id
		}
		rec.Checkpoint = big.NewInt(0)

	case old == id && newIsDefault:
		// Already riding the default deposit.
		return nil

	case old == id:
		// Consolidation: pull the reward-accrued balance out of the
		// default pool into the holder's own deposit.
		undelegated := new(big.Int).Sub(live, rec.Checkpoint)
		if undelegated.Sign() > 0 {
			if err := e.staker.Withdraw(s.DefaultDeposit, undelegated); err != nil {
				return err
			}
			if err := e.staker.StakeMore(id, undelegated); err != nil {
				return err
			}
		}
		rec.Checkpoint = new(big.Int).Set(live)

	case newIsDefault:
		// Fold the delegated balance back into the default pool.
		delegated := new(big.Int).Set(rec.Checkpoint)
		if delegated.Sign() > 0 {
			if err := e.staker.Withdraw(old, delegated); err != nil {
				return err
			}
			if err := e.staker.StakeMore(s.DefaultDeposit, delegated); err != nil {
				return err
			}
		}
		rec.Deposit = 0
		rec.Checkpoint = big.NewInt(0)

	case rec.Deposit == 0:
		// First delegation: the whole live balance leaves the default pool.
		if err := e.staker.Withdraw(s.DefaultDeposit, live); err != nil {
			return err
		}
		if err := e.staker.StakeMore(id, live); err != nil {
			return err
		}
		rec.Deposit = id
		rec.Checkpoint = new(big.Int).Set(live)

	default:
		// Both legs delegated and distinct: drain the undelegated slice
		// from default, the delegated slice from the old deposit, and
		// stake the union into the new one.
		undelegated := new(big.Int).Sub(live, rec.Checkpoint)
		if undelegated.Sign() < 0 {
			undelegated = big.NewInt(0)
		}
		if undelegated.Sign() > 0 {
			if err := e.staker.Withdraw(s.DefaultDeposit, undelegated); err != nil {
				return err
			}
		}
		if rec.Checkpoint.Sign() > 0 {
			if err := e.staker.Withdraw(old, rec.Checkpoint); err != nil {
				return err
			}
		}
		combined := new(big.Int).Add(undelegated, rec.Checkpoint)
		if combined.Sign() > 0 {
			if err := e.staker.StakeMore(id, combined); err != nil {
				return err
			}
		}
		rec.Deposit = id
		rec.Checkpoint = new(big.Int).Set(live)
	}

	if err := e.state.PutHolder(rec); err != nil {
		return err
	}
	e.emit(events.DepositUpdated{Holder: holder, OldDeposit: uint64(old), NewDeposit: uint64(id)})
	return nil
}

// requireQualified rejects deposits that are overridden or whose earning
// power sits below the qualification threshold relative to balance.
func (e *Engine) requireQualified(s *Settings, id staker.DepositID, dep *staker.Deposit) error {
	override, err := e.state.Override(id)
	if err != nil {
		return err
	}
	if override != nil {
		return errDepositOverridden
	}
	if s.MinQualifyingBips == 0 || dep.Balance.Sign() == 0 {
		return nil
	}
	lhs := new(big.Int).Mul(dep.EarningPower, bipsDenominator)
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(s.MinQualifyingBips), dep.Balance)
	if lhs.Cmp(rhs) < 0 {
		return errDepositNotQualified
	}
	return nil
}
