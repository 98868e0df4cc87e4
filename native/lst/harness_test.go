package lst

import (
	"math/big"
	"testing"

	"stakeshare/core/types"
	"stakeshare/crypto"
	"stakeshare/native/staker"
)

// mockState backs the engine and the reference staking ledger with plain
// maps, cloning on read the way the storage manager decodes fresh records.
type mockState struct {
	totals     *Totals
	settings   *Settings
	holders    map[string]*HolderRecord
	depositFor map[string]staker.DepositID
	accounts   map[string]*types.Account
	allowances map[string]*big.Int
	nonces     map[string]uint64
	overrides  map[staker.DepositID]*OverrideRecord

	deposits    map[staker.DepositID]*staker.Deposit
	nextDeposit uint64
	scores      map[string]uint64
}

func newMockState() *mockState {
	return &mockState{
		holders:    make(map[string]*HolderRecord),
		depositFor: make(map[string]staker.DepositID),
		accounts:   make(map[string]*types.Account),
		allowances: make(map[string]*big.Int),
		nonces:     make(map[string]uint64),
		overrides:  make(map[staker.DepositID]*OverrideRecord),
		deposits:   make(map[staker.DepositID]*staker.Deposit),
		scores:     make(map[string]uint64),
	}
}

func addrKey(addr crypto.Address) string { return string(addr.Bytes()) }

func pair(a, b crypto.Address) string { return addrKey(a) + ":" + addrKey(b) }

func (m *mockState) Totals() (*Totals, error) {
	if m.totals == nil {
		return nil, nil
	}
	return m.totals.Clone(), nil
}

func (m *mockState) PutTotals(t *Totals) error {
	m.totals = t.Clone()
	return nil
}

func (m *mockState) Holder(addr crypto.Address) (*HolderRecord, error) {
	if rec, ok := m.holders[addrKey(addr)]; ok {
		return rec.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutHolder(rec *HolderRecord) error {
	m.holders[addrKey(rec.Address)] = rec.Clone()
	return nil
}

func (m *mockState) Settings() (*Settings, error) {
	if m.settings == nil {
		return nil, nil
	}
	return m.settings.Clone(), nil
}

func (m *mockState) PutSettings(s *Settings) error {
	m.settings = s.Clone()
	return nil
}

func (m *mockState) DepositFor(delegatee crypto.Address) (staker.DepositID, bool, error) {
	id, ok := m.depositFor[addrKey(delegatee)]
	return id, ok, nil
}

func (m *mockState) PutDepositFor(delegatee crypto.Address, id staker.DepositID) error {
	m.depositFor[addrKey(delegatee)] = id
	return nil
}

func (m *mockState) Account(addr crypto.Address) (*types.Account, error) {
	if acc, ok := m.accounts[addrKey(addr)]; ok {
		clone := &types.Account{Nonce: acc.Nonce, Balance: new(big.Int).Set(acc.Balance)}
		return clone, nil
	}
	return nil, nil
}

func (m *mockState) PutAccount(addr crypto.Address, acc *types.Account) error {
	acc.EnsureDefaults()
	m.accounts[addrKey(addr)] = &types.Account{Nonce: acc.Nonce, Balance: new(big.Int).Set(acc.Balance)}
	return nil
}

func (m *mockState) Allowance(owner, spender crypto.Address) (*big.Int, error) {
	if v, ok := m.allowances[pair(owner, spender)]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) PutAllowance(owner, spender crypto.Address, value *big.Int) error {
	m.allowances[pair(owner, spender)] = new(big.Int).Set(value)
	return nil
}

func (m *mockState) PermitNonce(owner crypto.Address) (uint64, error) {
	return m.nonces[addrKey(owner)], nil
}

func (m *mockState) PutPermitNonce(owner crypto.Address, nonce uint64) error {
	m.nonces[addrKey(owner)] = nonce
	return nil
}

func (m *mockState) Override(id staker.DepositID) (*OverrideRecord, error) {
	if rec, ok := m.overrides[id]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, nil
}

func (m *mockState) PutOverride(rec *OverrideRecord) error {
	clone := *rec
	m.overrides[rec.Deposit] = &clone
	return nil
}

func (m *mockState) DeleteOverride(id staker.DepositID) error {
	delete(m.overrides, id)
	return nil
}

func (m *mockState) Deposit(id staker.DepositID) (*staker.Deposit, error) {
	if dep, ok := m.deposits[id]; ok {
		return dep.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutDeposit(id staker.DepositID, d *staker.Deposit) error {
	m.deposits[id] = d.Clone()
	return nil
}

func (m *mockState) NextDepositID() (staker.DepositID, error) {
	m.nextDeposit++
	return staker.DepositID(m.nextDeposit), nil
}

func (m *mockState) DelegateeScore(delegatee crypto.Address) (uint64, bool, error) {
	bips, ok := m.scores[addrKey(delegatee)]
	return bips, ok, nil
}

func (m *mockState) PutDelegateeScore(delegatee crypto.Address, bips uint64) error {
	m.scores[addrKey(delegatee)] = bips
	return nil
}

// mockGate implements WithdrawalGate with a configurable delay and failure.
type mockGate struct {
	delay     uint64
	nextID    uint64
	failInit  bool
	initiated map[uint64]*big.Int
	receivers map[uint64]crypto.Address
}

func newMockGate(delay uint64) *mockGate {
	return &mockGate{
		delay:     delay,
		initiated: make(map[uint64]*big.Int),
		receivers: make(map[uint64]crypto.Address),
	}
}

func (g *mockGate) DelaySeconds() (uint64, error) { return g.delay, nil }

func (g *mockGate) InitiateWithdrawal(amount *big.Int, receiver crypto.Address) (uint64, error) {
	if g.failInit {
		return 0, errInvalidAmount
	}
	g.nextID++
	g.initiated[g.nextID] = new(big.Int).Set(amount)
	g.receivers[g.nextID] = receiver
	return g.nextID, nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.LSTPrefix, raw)
}

var (
	testModule    = makeAddress(0x01)
	testOwner     = makeAddress(0x02)
	testGuardian  = makeAddress(0x03)
	testDefault   = makeAddress(0x04)
	testHolderA   = makeAddress(0x0a)
	testHolderB   = makeAddress(0x0b)
	testDelegatee = makeAddress(0x0c)
	testCollector = makeAddress(0x0d)
	testWrapper   = makeAddress(0x0e)
)

func newTestEngine(t *testing.T) (*Engine, *mockState, *staker.StateLedger) {
	t.Helper()
	state := newMockState()
	ledger := staker.NewStateLedger(state)
	engine := NewEngine(testModule)
	engine.SetState(state)
	engine.SetStaker(ledger)
	if err := ledger.SetDelegateeScore(testDefault, 10_000); err != nil {
		t.Fatalf("set default score: %v", err)
	}
	if err := ledger.SetDelegateeScore(testDelegatee, 10_000); err != nil {
		t.Fatalf("set delegatee score: %v", err)
	}
	if err := engine.Initialize(testOwner, testGuardian, testDefault); err != nil {
		t.Fatalf("initialize engine: %v", err)
	}
	return engine, state, ledger
}

func fund(t *testing.T, state *mockState, addr crypto.Address, amount int64) {
	t.Helper()
	if err := state.PutAccount(addr, &types.Account{Balance: big.NewInt(amount)}); err != nil {
		t.Fatalf("fund account: %v", err)
	}
}

func accountBalance(t *testing.T, state *mockState, addr crypto.Address) *big.Int {
	t.Helper()
	acc, err := state.Account(addr)
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	if acc == nil {
		return big.NewInt(0)
	}
	return acc.Balance
}

func depositBalance(t *testing.T, state *mockState, id staker.DepositID) *big.Int {
	t.Helper()
	dep, err := state.Deposit(id)
	if err != nil {
		t.Fatalf("load deposit: %v", err)
	}
	if dep == nil {
		t.Fatalf("deposit %d missing", id)
	}
	return dep.Balance
}

func mustStake(t *testing.T, engine *Engine, holder crypto.Address, amount int64) {
	t.Helper()
	if _, err := engine.Stake(holder, big.NewInt(amount)); err != nil {
		t.Fatalf("stake %d for %x: %v", amount, holder.Bytes()[19], err)
	}
}

func mustDelegate(t *testing.T, engine *Engine, holder, delegatee crypto.Address) {
	t.Helper()
	if err := engine.UpdateDelegation(holder, delegatee); err != nil {
		t.Fatalf("update delegation: %v", err)
	}
}

func balanceOf(t *testing.T, engine *Engine, addr crypto.Address) *big.Int {
	t.Helper()
	b, err := engine.BalanceOf(addr)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	return b
}
