package config

import (
	"fmt"
	"math/big"
	"strings"

	"stakeshare/crypto"
)

const maxFeeBips = 2000

func parseOptionalAddress(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := crypto.DecodeAddress(value); err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	return nil
}

func parseOptionalAmount(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return fmt.Errorf("config: %s must be a non-negative base-10 integer", field)
	}
	return nil
}

// Validate checks the loaded configuration for internally consistent values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if err := parseOptionalAddress("Genesis.Owner", c.Genesis.Owner); err != nil {
		return err
	}
	if err := parseOptionalAddress("Genesis.Guardian", c.Genesis.Guardian); err != nil {
		return err
	}
	if err := parseOptionalAddress("Genesis.DefaultDelegatee", c.Genesis.DefaultDelegatee); err != nil {
		return err
	}
	if err := parseOptionalAddress("Genesis.RewardCollector", c.Genesis.RewardCollector); err != nil {
		return err
	}
	if err := parseOptionalAddress("Genesis.FixedCaller", c.Genesis.FixedCaller); err != nil {
		return err
	}
	if err := parseOptionalAmount("Genesis.RewardPayout", c.Genesis.RewardPayout); err != nil {
		return err
	}
	if err := parseOptionalAmount("Genesis.MaxOverrideTip", c.Genesis.MaxOverrideTip); err != nil {
		return err
	}
	if c.Genesis.RewardFeeBips > maxFeeBips {
		return fmt.Errorf("config: Genesis.RewardFeeBips %d exceeds maximum %d", c.Genesis.RewardFeeBips, maxFeeBips)
	}
	if c.Genesis.MinQualifyingBips > 10000 {
		return fmt.Errorf("config: Genesis.MinQualifyingBips must not exceed 10000")
	}
	for i, alloc := range c.Genesis.Allocations {
		if _, err := crypto.DecodeAddress(alloc.Address); err != nil {
			return fmt.Errorf("config: Genesis.Allocations[%d].Address: %w", i, err)
		}
		amount, ok := new(big.Int).SetString(alloc.Amount, 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("config: Genesis.Allocations[%d].Amount must be a positive base-10 integer", i)
		}
	}
	return nil
}
