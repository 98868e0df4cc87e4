package gate

import (
	"errors"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakeshare/core/events"
	"stakeshare/core/types"
	"stakeshare/crypto"
)

// MaxDelaySeconds caps the configurable release delay at 30 days.
const MaxDelaySeconds uint64 = 30 * 24 * 60 * 60

var (
	errNilState           = errors.New("gate: state not configured")
	errNotInitialized     = errors.New("gate: not initialised")
	errAlreadyInitialized = errors.New("gate: already initialised")
	errInvalidAmount      = errors.New("gate: amount must be positive")
	errMissingAddress     = errors.New("gate: address required")
	errUnauthorized       = errors.New("gate: caller lacks required privilege")
	errDelayTooLong       = errors.New("gate: delay exceeds maximum")
	errUnknownWithdrawal  = errors.New("gate: unknown withdrawal")
	errNotMatured         = errors.New("gate: withdrawal not yet matured")
	errAuthExpired        = errors.New("gate: authorisation deadline elapsed")
	errBadSignature       = errors.New("gate: invalid authorisation signature")
)

var completionTypeHash = ethcrypto.Keccak256([]byte("CompleteWithdrawal(uint256 id,address receiver,uint256 deadline)"))

// Withdrawal is a pending release of unstaked funds.
type Withdrawal struct {
	ID          uint64
	Receiver    crypto.Address
	Amount      *big.Int
	AvailableAt uint64
}

// Settings carries the gate's governed configuration.
type Settings struct {
	Owner        crypto.Address
	DelaySeconds uint64
}

type gateState interface {
	Withdrawal(id uint64) (*Withdrawal, error)
	PutWithdrawal(w *Withdrawal) error
	DeleteWithdrawal(id uint64) error
	NextWithdrawalID() (uint64, error)
	GateSettings() (*Settings, error)
	PutGateSettings(s *Settings) error
	Account(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, acc *types.Account) error
}

// Gate queues unstaked funds until the configured delay elapses, then
// releases them to the designated receiver or to anyone carrying the
// receiver's signed authorisation.
type Gate struct {
	state         gateState
	emitter       events.Emitter
	moduleAddress crypto.Address
	nowFn         func() time.Time
}

// New constructs a gate custodying funds under the given module address.
func New(moduleAddr crypto.Address) *Gate {
	return &Gate{
		moduleAddress: moduleAddr,
		emitter:       events.NoopEmitter{},
		nowFn:         time.Now,
	}
}

// SetState wires the gate to the persistence layer.
func (g *Gate) SetState(state gateState) { g.state = state }

// SetEmitter wires the event sink.
func (g *Gate) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	g.emitter = emitter
}

// SetClock overrides the wall clock used for maturity checks.
func (g *Gate) SetClock(now func() time.Time) {
	if now != nil {
		g.nowFn = now
	}
}

// ModuleAddress returns the custody address.
func (g *Gate) ModuleAddress() crypto.Address { return g.moduleAddress }

func (g *Gate) ready() error {
	if g == nil || g.state == nil {
		return errNilState
	}
	return nil
}

func (g *Gate) settings() (*Settings, error) {
	s, err := g.state.GateSettings()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNotInitialized
	}
	return s, nil
}

// Initialize records the gate owner and initial delay. Runs once.
func (g *Gate) Initialize(owner crypto.Address, delaySeconds uint64) error {
	if err := g.ready(); err != nil {
		return err
	}
	if owner.IsZero() {
		return errMissingAddress
	}
	if delaySeconds > MaxDelaySeconds {
		return errDelayTooLong
	}
	existing, err := g.state.GateSettings()
	if err != nil {
		return err
	}
	if existing != nil {
		return errAlreadyInitialized
	}
	return g.state.PutGateSettings(&Settings{Owner: owner, DelaySeconds: delaySeconds})
}

// DelaySeconds reports the currently configured release delay.
func (g *Gate) DelaySeconds() (uint64, error) {
	if err := g.ready(); err != nil {
		return 0, err
	}
	s, err := g.settings()
	if err != nil {
		return 0, err
	}
	return s.DelaySeconds, nil
}

// SetDelay adjusts the release delay. Owner-only, capped.
func (g *Gate) SetDelay(caller crypto.Address, delaySeconds uint64) error {
	if err := g.ready(); err != nil {
		return err
	}
	s, err := g.settings()
	if err != nil {
		return err
	}
	if !caller.Equal(s.Owner) {
		return errUnauthorized
	}
	if delaySeconds > MaxDelaySeconds {
		return errDelayTooLong
	}
	old := s.DelaySeconds
	s.DelaySeconds = delaySeconds
	if err := g.state.PutGateSettings(s); err != nil {
		return err
	}
	g.emitter.Emit(events.DelayChanged{OldSeconds: old, NewSeconds: delaySeconds})
	return nil
}

// InitiateWithdrawal takes custody of amount for receiver and schedules its
// release once the current delay elapses.
func (g *Gate) InitiateWithdrawal(amount *big.Int, receiver crypto.Address) (uint64, error) {
	if err := g.ready(); err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, errInvalidAmount
	}
	if receiver.IsZero() {
		return 0, errMissingAddress
	}
	s, err := g.settings()
	if err != nil {
		return 0, err
	}
	id, err := g.state.NextWithdrawalID()
	if err != nil {
		return 0, err
	}
	availableAt := uint64(g.nowFn().Unix()) + s.DelaySeconds
	custody, err := g.loadAccount(g.moduleAddress)
	if err != nil {
		return 0, err
	}
	custody.Balance = new(big.Int).Add(custody.Balance, amount)
	if err := g.state.PutAccount(g.moduleAddress, custody); err != nil {
		return 0, err
	}
	w := &Withdrawal{
		ID:          id,
		Receiver:    receiver,
		Amount:      new(big.Int).Set(amount),
		AvailableAt: availableAt,
	}
	if err := g.state.PutWithdrawal(w); err != nil {
		return 0, err
	}
	g.emitter.Emit(events.WithdrawalInitiated{
		ID:          id,
		Receiver:    receiver,
		Amount:      new(big.Int).Set(amount),
		AvailableAt: availableAt,
	})
	return id, nil
}

func (g *Gate) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := g.state.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

// CompleteWithdrawal releases a matured withdrawal. Only the designated
// receiver may trigger the unsigned variant.
func (g *Gate) CompleteWithdrawal(caller crypto.Address, id uint64) error {
	if err := g.ready(); err != nil {
		return err
	}
	w, err := g.state.Withdrawal(id)
	if err != nil {
		return err
	}
	if w == nil {
		return errUnknownWithdrawal
	}
	if !caller.Equal(w.Receiver) {
		return errUnauthorized
	}
	return g.release(w)
}

// CompletionDigest is the message a receiver signs to let a third party
// trigger the release on their behalf before the deadline.
func (g *Gate) CompletionDigest(id uint64, receiver crypto.Address, deadline uint64) []byte {
	idWord := new(big.Int).SetUint64(id).FillBytes(make([]byte, 32))
	deadlineWord := new(big.Int).SetUint64(deadline).FillBytes(make([]byte, 32))
	receiverWord := make([]byte, 32)
	copy(receiverWord[12:], receiver.Bytes())
	return ethcrypto.Keccak256(completionTypeHash, idWord, receiverWord, deadlineWord)
}

// CompleteWithdrawalWithSig releases a matured withdrawal on the authority of
// the receiver's signature over the completion digest. Funds still go to the
// designated receiver.
func (g *Gate) CompleteWithdrawalWithSig(id uint64, deadline uint64, sig []byte) error {
	if err := g.ready(); err != nil {
		return err
	}
	if uint64(g.nowFn().Unix()) > deadline {
		return errAuthExpired
	}
	w, err := g.state.Withdrawal(id)
	if err != nil {
		return err
	}
	if w == nil {
		return errUnknownWithdrawal
	}
	if len(sig) != 65 {
		return errBadSignature
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	digest := g.CompletionDigest(id, w.Receiver, deadline)
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return errBadSignature
	}
	recovered := ethcrypto.PubkeyToAddress(*pub)
	if !crypto.NewAddress(crypto.LSTPrefix, recovered.Bytes()).Equal(w.Receiver) {
		return errBadSignature
	}
	return g.release(w)
}

func (g *Gate) release(w *Withdrawal) error {
	if uint64(g.nowFn().Unix()) < w.AvailableAt {
		return errNotMatured
	}
	custody, err := g.loadAccount(g.moduleAddress)
	if err != nil {
		return err
	}
	custody.Balance = new(big.Int).Sub(custody.Balance, w.Amount)
	receiverAcct, err := g.loadAccount(w.Receiver)
	if err != nil {
		return err
	}
	receiverAcct.Balance = new(big.Int).Add(receiverAcct.Balance, w.Amount)
	if err := g.state.PutAccount(g.moduleAddress, custody); err != nil {
		return err
	}
	if err := g.state.PutAccount(w.Receiver, receiverAcct); err != nil {
		return err
	}
	if err := g.state.DeleteWithdrawal(w.ID); err != nil {
		return err
	}
	g.emitter.Emit(events.WithdrawalCompleted{
		ID:       w.ID,
		Receiver: w.Receiver,
		Amount:   new(big.Int).Set(w.Amount),
	})
	return nil
}

// PendingWithdrawal exposes a read view of a queued withdrawal.
func (g *Gate) PendingWithdrawal(id uint64) (*Withdrawal, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	w, err := g.state.Withdrawal(id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errUnknownWithdrawal
	}
	clone := &Withdrawal{ID: w.ID, Receiver: w.Receiver, AvailableAt: w.AvailableAt}
	if w.Amount != nil {
		clone.Amount = new(big.Int).Set(w.Amount)
	}
	return clone, nil
}
