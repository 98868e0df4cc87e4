package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakeshare/crypto"
)

// stakeshare-cli manages holder keys and produces the offline signatures the
// engine accepts: signed approvals (permits) and withdrawal-completion
// authorisations. Digests are computed server-side and signed here so the key
// never leaves the operator's machine.

const passphraseEnv = "STAKESHARE_KEYSTORE_PASS"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "address":
		err = runAddress(os.Args[2:])
	case "sign":
		err = runSign(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stakeshare-cli <command> [flags]

commands:
  generate --keystore <path>            create a key and write an encrypted keystore file
  address  --keystore <path>            print the bech32 address held in a keystore file
  sign     --keystore <path> --digest <hex>
                                        sign a 32-byte digest (permit or withdrawal auth)

The keystore passphrase is read from `+passphraseEnv+`.`)
}

func passphrase() (string, error) {
	pass, ok := os.LookupEnv(passphraseEnv)
	if !ok {
		return "", fmt.Errorf("%s not set", passphraseEnv)
	}
	return pass, nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	path := fs.String("keystore", "", "path for the encrypted keystore file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("--keystore required")
	}
	pass, err := passphrase()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(*path, key, pass); err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}

func runAddress(args []string) error {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	path := fs.String("keystore", "", "path of the encrypted keystore file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("--keystore required")
	}
	pass, err := passphrase()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(*path, pass)
	if err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}

func runSign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	path := fs.String("keystore", "", "path of the encrypted keystore file")
	digestHex := fs.String("digest", "", "32-byte digest to sign, hex encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *digestHex == "" {
		return fmt.Errorf("--keystore and --digest required")
	}
	digest, err := hex.DecodeString(strings.TrimPrefix(*digestHex, "0x"))
	if err != nil {
		return fmt.Errorf("decode digest: %w", err)
	}
	if len(digest) != 32 {
		return fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	pass, err := passphrase()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(*path, pass)
	if err != nil {
		return err
	}
	sig, err := ethcrypto.Sign(digest, key.PrivateKey)
	if err != nil {
		return err
	}
	fmt.Println("0x" + hex.EncodeToString(sig))
	return nil
}
