package lst

import "errors"

var (
	errNilState              = errors.New("lst: state not configured")
	errNilStaker             = errors.New("lst: staking ledger not configured")
	errNotInitialized        = errors.New("lst: engine not initialised")
	errAlreadyInitialized    = errors.New("lst: engine already initialised")
	errInvalidAmount         = errors.New("lst: amount must be positive")
	errInsufficientBalance   = errors.New("lst: insufficient balance")
	errInsufficientFunds     = errors.New("lst: insufficient stake-token funds")
	errInsufficientAllowance = errors.New("lst: insufficient allowance")
	errInsufficientRewards   = errors.New("lst: claimed rewards below requested minimum")
	errNoSharesOutstanding   = errors.New("lst: no shares outstanding to receive rewards")
	errUnauthorized          = errors.New("lst: caller lacks required privilege")
	errUnauthorizedFixed     = errors.New("lst: caller is not the fixed wrapper")
	errMissingDelegatee      = errors.New("lst: delegatee required")
	errMissingAddress        = errors.New("lst: address required")
	errFeeBipsTooHigh        = errors.New("lst: fee bips exceed maximum")
	errFeeCollectorUnset     = errors.New("lst: fee collector required when fee set")
	errTipExceedsMax         = errors.New("lst: requested tip exceeds maximum")
	errThresholdTooHigh      = errors.New("lst: qualifying threshold exceeds maximum")
	errDepositNotOwned       = errors.New("lst: deposit not owned by the engine")
	errDepositOverridden     = errors.New("lst: deposit delegatee is overridden")
	errDepositNotQualified   = errors.New("lst: deposit earning power below qualification threshold")
	errDepositQualified      = errors.New("lst: deposit earning power not below qualification threshold")
	errDepositIsDefault      = errors.New("lst: default deposit cannot be overridden")
	errDepositEmpty          = errors.New("lst: deposit has no balance")
	errNotOverridden         = errors.New("lst: deposit is not overridden")
	errOverrideMismatch      = errors.New("lst: original delegatee does not match override record")
	errOverrideCurrent       = errors.New("lst: override already points at the current default")
	errPermitExpired         = errors.New("lst: permit deadline elapsed")
	errPermitSignature       = errors.New("lst: invalid permit signature")
	errPermitNonce           = errors.New("lst: incorrect permit nonce")
)
