package lst

import (
	"math/big"

	"stakeshare/crypto"
)

const (
	// MaxFeeBips caps the reward fee at 20%.
	MaxFeeBips uint64 = 2_000
	// MaxQualifyingBips caps the override qualification threshold at 100%.
	MaxQualifyingBips uint64 = 10_000
)

var bipsDenominator = big.NewInt(10_000)

func bigZero() *big.Int { return big.NewInt(0) }

func (e *Engine) requireOwner(s *Settings, caller crypto.Address) error {
	if !caller.Equal(s.Owner) {
		return errUnauthorized
	}
	return nil
}

// SetRewardParameters configures the reward auction. Owner-only; validated on
// every write.
func (e *Engine) SetRewardParameters(caller crypto.Address, params RewardParameters) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if err := e.requireOwner(s, caller); err != nil {
		return err
	}
	if params.FeeBips > MaxFeeBips {
		return errFeeBipsTooHigh
	}
	if params.FeeBips > 0 && params.FeeCollector.IsZero() {
		return errFeeCollectorUnset
	}
	if params.PayoutAmount != nil && params.PayoutAmount.Sign() < 0 {
		return errInvalidAmount
	}
	s.Reward = params.Clone()
	s.EnsureDefaults()
	return e.state.PutSettings(s)
}

// SetMaxOverrideTip bounds the tip minted for override governance actions.
func (e *Engine) SetMaxOverrideTip(caller crypto.Address, tip *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if err := e.requireOwner(s, caller); err != nil {
		return err
	}
	if tip == nil || tip.Sign() < 0 {
		return errInvalidAmount
	}
	s.MaxOverrideTip = new(big.Int).Set(tip)
	return e.state.PutSettings(s)
}

// SetMinQualifyingBips sets the earning-power-to-balance floor a deposit must
// clear to receive delegated balance and to escape an override.
func (e *Engine) SetMinQualifyingBips(caller crypto.Address, bips uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if err := e.requireOwner(s, caller); err != nil {
		return err
	}
	if bips > MaxQualifyingBips {
		return errThresholdTooHigh
	}
	s.MinQualifyingBips = bips
	return e.state.PutSettings(s)
}

// SetFixedCaller designates the single wrapper contract allowed to use the
// fixed-balance pass-through entry points.
func (e *Engine) SetFixedCaller(caller, wrapper crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	s, err := e.settings()
	if err != nil {
		return err
	}
	if err := e.requireOwner(s, caller); err != nil {
		return err
	}
	s.FixedCaller = wrapper
	return e.state.PutSettings(s)
}

// RewardParametersView returns the current reward auction configuration.
func (e *Engine) RewardParametersView() (RewardParameters, error) {
	if err := e.ready(); err != nil {
		return RewardParameters{}, err
	}
	s, err := e.settings()
	if err != nil {
		return RewardParameters{}, err
	}
	return s.Reward.Clone(), nil
}

// SettingsView returns a copy of the governance settings.
func (e *Engine) SettingsView() (*Settings, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	s, err := e.settings()
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}
