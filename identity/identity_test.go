package identity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

const (
	phrase12 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	phrase24 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"
)

func TestResolveSeedIsDeterministic(t *testing.T) {
	for _, phrase := range []string{phrase12, phrase24} {
		first, err := ResolveSeed(phrase)
		require.NoError(t, err)

		second, err := ResolveSeed(phrase)
		require.NoError(t, err)

		assert.Len(t, first, SeedSize)
		assert.Equal(t, first, second)
	}
}

func TestResolveSeedDistinguishesPhrases(t *testing.T) {
	first, err := ResolveSeed(phrase12)
	require.NoError(t, err)

	second, err := ResolveSeed(phrase24)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestResolveSeedNormalizesWhitespace(t *testing.T) {
	expected, err := ResolveSeed(phrase12)
	require.NoError(t, err)

	seed, err := ResolveSeed("  " + strings.ReplaceAll(phrase12, " ", "  ") + "\n")
	require.NoError(t, err)

	assert.Equal(t, expected, seed)
}

func TestResolveSeedRejectsMalformedPhrases(t *testing.T) {
	cases := map[string]string{
		"wrong checksum": strings.Repeat("abandon ", 11) + "abandon",
		"unknown word":   strings.Repeat("abandon ", 11) + "satoshis",
		"wrong count":    strings.Repeat("abandon ", 10) + "about",
		"empty":          "",
	}

	for name, phrase := range cases {
		t.Run(name, func(t *testing.T) {
			seed, err := ResolveSeed(phrase)
			assert.True(t, errors.Is(err, ErrInvalidMnemonic), "got %v", err)
			assert.Nil(t, seed)
		})
	}
}

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	require.NoError(t, err)

	assert.Len(t, strings.Fields(mnemonic), 12)
	assert.True(t, bip39.IsMnemonicValid(mnemonic))

	other, err := GenerateMnemonic()
	require.NoError(t, err)
	assert.NotEqual(t, mnemonic, other)

	_, err = ResolveSeed(mnemonic)
	assert.NoError(t, err)
}
