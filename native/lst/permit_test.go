package lst

import (
	"errors"
	"math/big"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakeshare/crypto"
)

func signPermit(t *testing.T, engine *Engine, key *crypto.PrivateKey, owner, spender crypto.Address, value *big.Int, nonce, deadline uint64) []byte {
	t.Helper()
	digest := engine.PermitDigest(owner, spender, value, nonce, deadline)
	sig, err := ethcrypto.Sign(digest, key.PrivateKey)
	if err != nil {
		t.Fatalf("sign permit: %v", err)
	}
	return sig
}

func TestPermitGrantsAllowance(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := key.PubKey().Address()
	deadline := uint64(time.Now().Add(time.Hour).Unix())
	value := big.NewInt(777)

	nonce, err := engine.PermitNonce(owner)
	if err != nil || nonce != 0 {
		t.Fatalf("initial nonce: got %d err %v", nonce, err)
	}
	sig := signPermit(t, engine, key, owner, testHolderB, value, nonce, deadline)
	if err := engine.Permit(owner, testHolderB, value, nonce, deadline, sig); err != nil {
		t.Fatalf("permit: %v", err)
	}
	if got, _ := engine.Allowance(owner, testHolderB); got.Cmp(value) != 0 {
		t.Fatalf("allowance: got %s want %s", got, value)
	}
	if nonce, _ = engine.PermitNonce(owner); nonce != 1 {
		t.Fatalf("nonce after permit: got %d want 1", nonce)
	}

	// Replaying the consumed nonce is rejected.
	if err := engine.Permit(owner, testHolderB, value, 0, deadline, sig); !errors.Is(err, errPermitNonce) {
		t.Fatalf("replay: got %v want %v", err, errPermitNonce)
	}
}

func TestPermitAcceptsLegacyRecoveryID(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := key.PubKey().Address()
	deadline := uint64(time.Now().Add(time.Hour).Unix())
	sig := signPermit(t, engine, key, owner, testHolderB, big.NewInt(5), 0, deadline)
	sig[64] += 27
	if err := engine.Permit(owner, testHolderB, big.NewInt(5), 0, deadline, sig); err != nil {
		t.Fatalf("permit with v in {27,28}: %v", err)
	}
}

func TestPermitRejectsExpiredDeadline(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	now := time.Unix(1_900_000_000, 0)
	engine.SetClock(func() time.Time { return now })
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := key.PubKey().Address()
	deadline := uint64(now.Unix()) - 1
	sig := signPermit(t, engine, key, owner, testHolderB, big.NewInt(5), 0, deadline)
	if err := engine.Permit(owner, testHolderB, big.NewInt(5), 0, deadline, sig); !errors.Is(err, errPermitExpired) {
		t.Fatalf("got %v want %v", err, errPermitExpired)
	}
	// A deadline equal to the clock is still live.
	sig = signPermit(t, engine, key, owner, testHolderB, big.NewInt(5), 0, uint64(now.Unix()))
	if err := engine.Permit(owner, testHolderB, big.NewInt(5), 0, uint64(now.Unix()), sig); err != nil {
		t.Fatalf("deadline at clock: %v", err)
	}
}

func TestPermitRejectsWrongSigner(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	other, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := key.PubKey().Address()
	deadline := uint64(time.Now().Add(time.Hour).Unix())

	sig := signPermit(t, engine, other, owner, testHolderB, big.NewInt(9), 0, deadline)
	if err := engine.Permit(owner, testHolderB, big.NewInt(9), 0, deadline, sig); !errors.Is(err, errPermitSignature) {
		t.Fatalf("foreign signer: got %v want %v", err, errPermitSignature)
	}
	if err := engine.Permit(owner, testHolderB, big.NewInt(9), 0, deadline, []byte{0x01}); !errors.Is(err, errPermitSignature) {
		t.Fatalf("short signature: got %v want %v", err, errPermitSignature)
	}
}

func TestPermitDigestBindsEveryField(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.SetTokenMetadata("Staked Share Token", "sSHARE")
	base := engine.PermitDigest(testHolderA, testHolderB, big.NewInt(1), 0, 100)
	variants := [][]byte{
		engine.PermitDigest(testHolderB, testHolderB, big.NewInt(1), 0, 100),
		engine.PermitDigest(testHolderA, testHolderA, big.NewInt(1), 0, 100),
		engine.PermitDigest(testHolderA, testHolderB, big.NewInt(2), 0, 100),
		engine.PermitDigest(testHolderA, testHolderB, big.NewInt(1), 1, 100),
		engine.PermitDigest(testHolderA, testHolderB, big.NewInt(1), 0, 101),
	}
	for i, v := range variants {
		if string(v) == string(base) {
			t.Fatalf("variant %d collides with base digest", i)
		}
	}
	// A different token name shifts the signing domain.
	engine.SetTokenMetadata("Other Token", "OTH")
	if string(engine.PermitDigest(testHolderA, testHolderB, big.NewInt(1), 0, 100)) == string(base) {
		t.Fatalf("digest ignores the signing domain")
	}
}
