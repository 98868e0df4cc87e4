package main

import (
	"fmt"
	"log/slog"
	"math/big"

	"stakeshare/config"
	"stakeshare/core/state"
	"stakeshare/core/types"
	"stakeshare/crypto"
	"stakeshare/native/gate"
	"stakeshare/native/lst"
	"stakeshare/native/staker"
)

// seedGenesis initialises the engine and the gate on first boot. A store that
// already carries settings is left untouched.
func seedGenesis(manager *state.Manager, engine *lst.Engine, gateInst *gate.Gate, staking *staker.StateLedger, cfg *config.Config, logger *slog.Logger) error {
	existing, err := manager.Settings()
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if cfg.Genesis.Owner == "" || cfg.Genesis.DefaultDelegatee == "" {
		return fmt.Errorf("genesis: Owner and DefaultDelegatee required on first boot")
	}

	owner, err := crypto.DecodeAddress(cfg.Genesis.Owner)
	if err != nil {
		return fmt.Errorf("genesis: owner: %w", err)
	}
	defaultDelegatee, err := crypto.DecodeAddress(cfg.Genesis.DefaultDelegatee)
	if err != nil {
		return fmt.Errorf("genesis: default delegatee: %w", err)
	}
	guardian := crypto.Address{}
	if cfg.Genesis.Guardian != "" {
		guardian, err = crypto.DecodeAddress(cfg.Genesis.Guardian)
		if err != nil {
			return fmt.Errorf("genesis: guardian: %w", err)
		}
	}

	// The default delegatee needs a nonzero score or delegated deposits can
	// never qualify against it.
	if _, ok, err := manager.DelegateeScore(defaultDelegatee); err != nil {
		return err
	} else if !ok {
		if err := staking.SetDelegateeScore(defaultDelegatee, 10000); err != nil {
			return err
		}
	}

	if err := engine.Initialize(owner, guardian, defaultDelegatee); err != nil {
		return err
	}

	if cfg.Genesis.RewardPayout != "" {
		payout, _ := new(big.Int).SetString(cfg.Genesis.RewardPayout, 10)
		collector := crypto.Address{}
		if cfg.Genesis.RewardCollector != "" {
			collector, err = crypto.DecodeAddress(cfg.Genesis.RewardCollector)
			if err != nil {
				return fmt.Errorf("genesis: reward collector: %w", err)
			}
		}
		if err := engine.SetRewardParameters(owner, lst.RewardParameters{
			PayoutAmount: payout,
			FeeBips:      cfg.Genesis.RewardFeeBips,
			FeeCollector: collector,
		}); err != nil {
			return err
		}
	}
	if cfg.Genesis.MaxOverrideTip != "" {
		tip, _ := new(big.Int).SetString(cfg.Genesis.MaxOverrideTip, 10)
		if err := engine.SetMaxOverrideTip(owner, tip); err != nil {
			return err
		}
	}
	if cfg.Genesis.MinQualifyingBips > 0 {
		if err := engine.SetMinQualifyingBips(owner, cfg.Genesis.MinQualifyingBips); err != nil {
			return err
		}
	}
	if cfg.Genesis.FixedCaller != "" {
		wrapper, err := crypto.DecodeAddress(cfg.Genesis.FixedCaller)
		if err != nil {
			return fmt.Errorf("genesis: fixed caller: %w", err)
		}
		if err := engine.SetFixedCaller(owner, wrapper); err != nil {
			return err
		}
	}

	if err := gateInst.Initialize(owner, cfg.Gate.DelaySeconds); err != nil {
		return err
	}

	for _, alloc := range cfg.Genesis.Allocations {
		addr, err := crypto.DecodeAddress(alloc.Address)
		if err != nil {
			return fmt.Errorf("genesis: allocation address: %w", err)
		}
		amount, ok := new(big.Int).SetString(alloc.Amount, 10)
		if !ok {
			return fmt.Errorf("genesis: allocation amount %q", alloc.Amount)
		}
		acct, err := manager.Account(addr)
		if err != nil {
			return err
		}
		if acct == nil {
			acct = &types.Account{}
		}
		acct.EnsureDefaults()
		acct.Balance = new(big.Int).Add(acct.Balance, amount)
		if err := manager.PutAccount(addr, acct); err != nil {
			return err
		}
	}

	logger.Info("genesis seeded",
		slog.String("owner", owner.String()),
		slog.String("defaultDelegatee", defaultDelegatee.String()),
		slog.Int("allocations", len(cfg.Genesis.Allocations)))
	return nil
}
