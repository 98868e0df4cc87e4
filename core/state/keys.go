package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	totalsKey       = ethcrypto.Keccak256([]byte("lst/totals"))
	settingsKey     = ethcrypto.Keccak256([]byte("lst/settings"))
	holderPrefix    = []byte("lst/holder/")
	depositIdxPref  = []byte("lst/deposit-for/")
	allowancePrefix = []byte("lst/allowance/")
	noncePrefix     = []byte("lst/permit-nonce/")
	overridePrefix  = []byte("lst/override/")
	accountPrefix   = []byte("account/")

	depositPrefix    = []byte("staker/deposit/")
	depositSeqKey    = ethcrypto.Keccak256([]byte("staker/deposit-seq"))
	scorePrefix      = []byte("staker/score/")
	gateSettingsKey  = ethcrypto.Keccak256([]byte("gate/settings"))
	withdrawalPrefix = []byte("gate/withdrawal/")
	withdrawalSeqKey = ethcrypto.Keccak256([]byte("gate/withdrawal-seq"))
)

func prefixedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

func uint64Key(prefix []byte, id uint64) []byte {
	var suffix [8]byte
	binary.BigEndian.PutUint64(suffix[:], id)
	return prefixedKey(prefix, suffix[:])
}

func pairKey(prefix []byte, a, b []byte) []byte {
	buf := make([]byte, len(prefix)+len(a)+1+len(b))
	copy(buf, prefix)
	copy(buf[len(prefix):], a)
	buf[len(prefix)+len(a)] = ':'
	copy(buf[len(prefix)+len(a)+1:], b)
	return ethcrypto.Keccak256(buf)
}
