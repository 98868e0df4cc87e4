package state

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"stakeshare/core/types"
	"stakeshare/crypto"
	"stakeshare/native/gate"
	"stakeshare/native/lst"
	"stakeshare/native/staker"
	"stakeshare/storage"
)

// Manager persists every module record as an RLP blob under a hashed,
// prefixed key. It backs the lst engine, the staking ledger and the
// withdrawal gate with a single key-value database.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) read(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) write(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) nextSequence(key []byte) (uint64, error) {
	var current uint64
	if _, err := m.read(key, &current); err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.write(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

func addressBytes(addr crypto.Address) []byte {
	return append([]byte(nil), addr.Bytes()...)
}

func addressFromBytes(b []byte) crypto.Address {
	if len(b) != crypto.AddressLength {
		return crypto.Address{}
	}
	return crypto.MustNewAddress(crypto.LSTPrefix, b)
}

// --- Shared accounts ---

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// Account loads a balance record, or nil when the address is untouched.
func (m *Manager) Account(addr crypto.Address) (*types.Account, error) {
	var rec storedAccount
	ok, err := m.read(prefixedKey(accountPrefix, addr.Bytes()), &rec)
	if err != nil || !ok {
		return nil, err
	}
	acc := &types.Account{Nonce: rec.Nonce, Balance: rec.Balance}
	acc.EnsureDefaults()
	return acc, nil
}

// PutAccount stores a balance record.
func (m *Manager) PutAccount(addr crypto.Address, acc *types.Account) error {
	if acc == nil {
		return errors.New("state: nil account")
	}
	acc.EnsureDefaults()
	rec := storedAccount{Nonce: acc.Nonce, Balance: acc.Balance}
	return m.write(prefixedKey(accountPrefix, addr.Bytes()), &rec)
}

// --- LST engine state ---

type storedTotals struct {
	Supply *big.Int
	Shares *big.Int
}

// Totals loads the global share accounting state, or nil before genesis.
func (m *Manager) Totals() (*lst.Totals, error) {
	var rec storedTotals
	ok, err := m.read(totalsKey, &rec)
	if err != nil || !ok {
		return nil, err
	}
	t := &lst.Totals{Supply: rec.Supply, Shares: rec.Shares}
	t.EnsureDefaults()
	return t, nil
}

// PutTotals stores the global share accounting state.
func (m *Manager) PutTotals(t *lst.Totals) error {
	if t == nil {
		return errors.New("state: nil totals")
	}
	t.EnsureDefaults()
	return m.write(totalsKey, &storedTotals{Supply: t.Supply, Shares: t.Shares})
}

type storedHolder struct {
	Address    []byte
	Deposit    uint64
	Checkpoint *big.Int
	Shares     *big.Int
}

// Holder loads a per-holder record, or nil for an address that never held.
func (m *Manager) Holder(addr crypto.Address) (*lst.HolderRecord, error) {
	var rec storedHolder
	ok, err := m.read(prefixedKey(holderPrefix, addr.Bytes()), &rec)
	if err != nil || !ok {
		return nil, err
	}
	h := &lst.HolderRecord{
		Address:    addressFromBytes(rec.Address),
		Deposit:    staker.DepositID(rec.Deposit),
		Checkpoint: rec.Checkpoint,
		Shares:     rec.Shares,
	}
	h.EnsureDefaults()
	return h, nil
}

// PutHolder stores a per-holder record keyed by its address.
func (m *Manager) PutHolder(h *lst.HolderRecord) error {
	if h == nil {
		return errors.New("state: nil holder record")
	}
	h.EnsureDefaults()
	rec := storedHolder{
		Address:    addressBytes(h.Address),
		Deposit:    uint64(h.Deposit),
		Checkpoint: h.Checkpoint,
		Shares:     h.Shares,
	}
	return m.write(prefixedKey(holderPrefix, h.Address.Bytes()), &rec)
}

type storedSettings struct {
	Owner             []byte
	Guardian          []byte
	Control           uint8
	DefaultDelegatee  []byte
	DefaultDeposit    uint64
	RewardPayout      *big.Int
	RewardFeeBips     uint64
	RewardCollector   []byte
	MaxOverrideTip    *big.Int
	MinQualifyingBips uint64
	FixedCaller       []byte
}

// Settings loads the governed configuration, or nil before initialisation.
func (m *Manager) Settings() (*lst.Settings, error) {
	var rec storedSettings
	ok, err := m.read(settingsKey, &rec)
	if err != nil || !ok {
		return nil, err
	}
	s := &lst.Settings{
		Owner:            addressFromBytes(rec.Owner),
		Guardian:         addressFromBytes(rec.Guardian),
		Control:          lst.ControlState(rec.Control),
		DefaultDelegatee: addressFromBytes(rec.DefaultDelegatee),
		DefaultDeposit:   staker.DepositID(rec.DefaultDeposit),
		Reward: lst.RewardParameters{
			PayoutAmount: rec.RewardPayout,
			FeeBips:      rec.RewardFeeBips,
			FeeCollector: addressFromBytes(rec.RewardCollector),
		},
		MaxOverrideTip:    rec.MaxOverrideTip,
		MinQualifyingBips: rec.MinQualifyingBips,
		FixedCaller:       addressFromBytes(rec.FixedCaller),
	}
	s.EnsureDefaults()
	return s, nil
}

// PutSettings stores the governed configuration.
func (m *Manager) PutSettings(s *lst.Settings) error {
	if s == nil {
		return errors.New("state: nil settings")
	}
	s.EnsureDefaults()
	rec := storedSettings{
		Owner:             addressBytes(s.Owner),
		Guardian:          addressBytes(s.Guardian),
		Control:           uint8(s.Control),
		DefaultDelegatee:  addressBytes(s.DefaultDelegatee),
		DefaultDeposit:    uint64(s.DefaultDeposit),
		RewardPayout:      s.Reward.PayoutAmount,
		RewardFeeBips:     s.Reward.FeeBips,
		RewardCollector:   addressBytes(s.Reward.FeeCollector),
		MaxOverrideTip:    s.MaxOverrideTip,
		MinQualifyingBips: s.MinQualifyingBips,
		FixedCaller:       addressBytes(s.FixedCaller),
	}
	return m.write(settingsKey, &rec)
}

// DepositFor resolves the deposit opened for a delegatee, if any.
func (m *Manager) DepositFor(delegatee crypto.Address) (staker.DepositID, bool, error) {
	var id uint64
	ok, err := m.read(prefixedKey(depositIdxPref, delegatee.Bytes()), &id)
	if err != nil || !ok {
		return 0, false, err
	}
	return staker.DepositID(id), true, nil
}

// PutDepositFor records the deposit opened for a delegatee.
func (m *Manager) PutDepositFor(delegatee crypto.Address, id staker.DepositID) error {
	return m.write(prefixedKey(depositIdxPref, delegatee.Bytes()), uint64(id))
}

// Allowance loads a spend approval. Missing approvals read as zero.
func (m *Manager) Allowance(owner, spender crypto.Address) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.read(pairKey(allowancePrefix, owner.Bytes(), spender.Bytes()), value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// PutAllowance stores a spend approval.
func (m *Manager) PutAllowance(owner, spender crypto.Address, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	return m.write(pairKey(allowancePrefix, owner.Bytes(), spender.Bytes()), value)
}

// PermitNonce loads the next expected signed-approval nonce for an owner.
func (m *Manager) PermitNonce(owner crypto.Address) (uint64, error) {
	var nonce uint64
	if _, err := m.read(prefixedKey(noncePrefix, owner.Bytes()), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// PutPermitNonce stores the next expected signed-approval nonce.
func (m *Manager) PutPermitNonce(owner crypto.Address, nonce uint64) error {
	return m.write(prefixedKey(noncePrefix, owner.Bytes()), nonce)
}

type storedOverride struct {
	Deposit     uint64
	Original    []byte
	DelegatedTo []byte
}

// Override loads the override record for a deposit, or nil when not flagged.
func (m *Manager) Override(id staker.DepositID) (*lst.OverrideRecord, error) {
	var rec storedOverride
	ok, err := m.read(uint64Key(overridePrefix, uint64(id)), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &lst.OverrideRecord{
		Deposit:     staker.DepositID(rec.Deposit),
		Original:    addressFromBytes(rec.Original),
		DelegatedTo: addressFromBytes(rec.DelegatedTo),
	}, nil
}

// PutOverride stores an override record keyed by its deposit.
func (m *Manager) PutOverride(rec *lst.OverrideRecord) error {
	if rec == nil {
		return errors.New("state: nil override record")
	}
	stored := storedOverride{
		Deposit:     uint64(rec.Deposit),
		Original:    addressBytes(rec.Original),
		DelegatedTo: addressBytes(rec.DelegatedTo),
	}
	return m.write(uint64Key(overridePrefix, uint64(rec.Deposit)), &stored)
}

// DeleteOverride clears the override flag for a deposit.
func (m *Manager) DeleteOverride(id staker.DepositID) error {
	err := m.db.Delete(uint64Key(overridePrefix, uint64(id)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// --- Staking ledger state ---

type storedDeposit struct {
	Balance      *big.Int
	Owner        []byte
	Delegatee    []byte
	EarningPower *big.Int
	Accrued      *big.Int
}

// Deposit loads a staking deposit, or nil for an unknown id.
func (m *Manager) Deposit(id staker.DepositID) (*staker.Deposit, error) {
	var rec storedDeposit
	ok, err := m.read(uint64Key(depositPrefix, uint64(id)), &rec)
	if err != nil || !ok {
		return nil, err
	}
	d := &staker.Deposit{
		Balance:      rec.Balance,
		Owner:        addressFromBytes(rec.Owner),
		Delegatee:    addressFromBytes(rec.Delegatee),
		EarningPower: rec.EarningPower,
		Accrued:      rec.Accrued,
	}
	d.EnsureDefaults()
	return d, nil
}

// PutDeposit stores a staking deposit under its id.
func (m *Manager) PutDeposit(id staker.DepositID, d *staker.Deposit) error {
	if d == nil {
		return errors.New("state: nil deposit")
	}
	d.EnsureDefaults()
	rec := storedDeposit{
		Balance:      d.Balance,
		Owner:        addressBytes(d.Owner),
		Delegatee:    addressBytes(d.Delegatee),
		EarningPower: d.EarningPower,
		Accrued:      d.Accrued,
	}
	return m.write(uint64Key(depositPrefix, uint64(id)), &rec)
}

// NextDepositID allocates a fresh deposit identifier. IDs start at 1 so the
// zero value stays free to mean "default deposit" in holder records.
func (m *Manager) NextDepositID() (staker.DepositID, error) {
	next, err := m.nextSequence(depositSeqKey)
	if err != nil {
		return 0, err
	}
	return staker.DepositID(next), nil
}

// DelegateeScore loads the operator-assigned score for a delegatee.
func (m *Manager) DelegateeScore(delegatee crypto.Address) (uint64, bool, error) {
	var bips uint64
	ok, err := m.read(prefixedKey(scorePrefix, delegatee.Bytes()), &bips)
	if err != nil || !ok {
		return 0, false, err
	}
	return bips, true, nil
}

// PutDelegateeScore stores the operator-assigned score for a delegatee.
func (m *Manager) PutDelegateeScore(delegatee crypto.Address, bips uint64) error {
	return m.write(prefixedKey(scorePrefix, delegatee.Bytes()), bips)
}

// --- Withdrawal gate state ---

type storedGateSettings struct {
	Owner        []byte
	DelaySeconds uint64
}

// GateSettings loads the gate configuration, or nil before initialisation.
func (m *Manager) GateSettings() (*gate.Settings, error) {
	var rec storedGateSettings
	ok, err := m.read(gateSettingsKey, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &gate.Settings{
		Owner:        addressFromBytes(rec.Owner),
		DelaySeconds: rec.DelaySeconds,
	}, nil
}

// PutGateSettings stores the gate configuration.
func (m *Manager) PutGateSettings(s *gate.Settings) error {
	if s == nil {
		return errors.New("state: nil gate settings")
	}
	rec := storedGateSettings{Owner: addressBytes(s.Owner), DelaySeconds: s.DelaySeconds}
	return m.write(gateSettingsKey, &rec)
}

type storedWithdrawal struct {
	ID          uint64
	Receiver    []byte
	Amount      *big.Int
	AvailableAt uint64
}

// Withdrawal loads a pending withdrawal, or nil for an unknown id.
func (m *Manager) Withdrawal(id uint64) (*gate.Withdrawal, error) {
	var rec storedWithdrawal
	ok, err := m.read(uint64Key(withdrawalPrefix, id), &rec)
	if err != nil || !ok {
		return nil, err
	}
	amount := rec.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	return &gate.Withdrawal{
		ID:          rec.ID,
		Receiver:    addressFromBytes(rec.Receiver),
		Amount:      amount,
		AvailableAt: rec.AvailableAt,
	}, nil
}

// PutWithdrawal stores a pending withdrawal under its id.
func (m *Manager) PutWithdrawal(w *gate.Withdrawal) error {
	if w == nil {
		return errors.New("state: nil withdrawal")
	}
	amount := w.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	rec := storedWithdrawal{
		ID:          w.ID,
		Receiver:    addressBytes(w.Receiver),
		Amount:      amount,
		AvailableAt: w.AvailableAt,
	}
	return m.write(uint64Key(withdrawalPrefix, w.ID), &rec)
}

// DeleteWithdrawal clears a completed withdrawal.
func (m *Manager) DeleteWithdrawal(id uint64) error {
	err := m.db.Delete(uint64Key(withdrawalPrefix, id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// NextWithdrawalID allocates a fresh, monotonically increasing withdrawal id.
func (m *Manager) NextWithdrawalID() (uint64, error) {
	return m.nextSequence(withdrawalSeqKey)
}
