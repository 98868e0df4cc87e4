package lst

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakeshare/core/events"
	"stakeshare/crypto"
)

// PermitVersion is the version string baked into the signing domain.
const PermitVersion = "1"

var (
	permitDomainTypeHash = ethcrypto.Keccak256([]byte("SignedApprovalDomain(string name,string version,address verifyingContract)"))
	permitTypeHash       = ethcrypto.Keccak256([]byte("Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"))
)

func pad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func wordFromBig(v *big.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return pad32(v.Bytes())
}

func wordFromUint64(v uint64) []byte {
	return wordFromBig(new(big.Int).SetUint64(v))
}

// DomainSeparator binds permit signatures to this token's name, version and
// module address so they cannot be replayed against another deployment.
func (e *Engine) DomainSeparator() []byte {
	return ethcrypto.Keccak256(
		permitDomainTypeHash,
		ethcrypto.Keccak256([]byte(e.tokenName)),
		ethcrypto.Keccak256([]byte(PermitVersion)),
		pad32(e.moduleAddress.Bytes()),
	)
}

// PermitDigest computes the digest a holder signs to grant an allowance
// without submitting the approval themselves.
func (e *Engine) PermitDigest(owner, spender crypto.Address, value *big.Int, nonce, deadline uint64) []byte {
	structHash := ethcrypto.Keccak256(
		permitTypeHash,
		pad32(owner.Bytes()),
		pad32(spender.Bytes()),
		wordFromBig(value),
		wordFromUint64(nonce),
		wordFromUint64(deadline),
	)
	return ethcrypto.Keccak256([]byte{0x19, 0x01}, e.DomainSeparator(), structHash)
}

// PermitNonce returns the next unused nonce for a signer.
func (e *Engine) PermitNonce(owner crypto.Address) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.PermitNonce(owner)
}

// Permit applies a signed allowance grant. The signature covers a typed,
// versioned, domain-separated message; replay is prevented by the per-signer
// monotonically increasing nonce and the deadline.
func (e *Engine) Permit(owner, spender crypto.Address, value *big.Int, nonce, deadline uint64, sig []byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() || spender.IsZero() {
		return errMissingAddress
	}
	if value == nil || value.Sign() < 0 {
		return errInvalidAmount
	}
	if uint64(e.nowFn().Unix()) > deadline {
		return errPermitExpired
	}
	expected, err := e.state.PermitNonce(owner)
	if err != nil {
		return err
	}
	if nonce != expected {
		return errPermitNonce
	}
	if len(sig) != 65 {
		return errPermitSignature
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	digest := e.PermitDigest(owner, spender, value, nonce, deadline)
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return errPermitSignature
	}
	recovered := ethcrypto.PubkeyToAddress(*pub)
	if !crypto.NewAddress(crypto.LSTPrefix, recovered.Bytes()).Equal(owner) {
		return errPermitSignature
	}
	if err := e.state.PutPermitNonce(owner, nonce+1); err != nil {
		return err
	}
	if err := e.state.PutAllowance(owner, spender, new(big.Int).Set(value)); err != nil {
		return err
	}
	e.emit(events.Approval{Owner: owner, Spender: spender, Value: new(big.Int).Set(value)})
	return nil
}
