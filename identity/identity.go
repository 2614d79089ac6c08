// Package identity turns BIP39 mnemonic phrases into node seeds.
package identity

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a seed produced by ResolveSeed.
const SeedSize = 64

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// ResolveSeed validates an English mnemonic and derives its seed with an
// empty passphrase.
func ResolveSeed(phrase string) ([]byte, error) {
	phrase = strings.Join(strings.Fields(phrase), " ")

	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}

	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, ErrInvalidMnemonic
	}

	return seed, nil
}

// GenerateMnemonic returns a fresh 12 word English mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", errors.Errorf("Could not generate entropy: %v", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Errorf("Could not generate mnemonic: %v", err)
	}

	return mnemonic, nil
}
