package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/lnconsole/console"
	"github.com/the-lightning-land/lnconsole/node"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("NODE_API_KEY", "0201")
	t.Setenv("NODE_INVITE_CODE", "invite")
	t.Setenv("MNEMONIC", "abandon about")

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	settings := cfg.settings()
	assert.Equal(t, "0201", settings[console.SettingAPIKey])
	assert.Equal(t, "invite", settings[console.SettingInviteCode])
	assert.Equal(t, "abandon about", settings[console.SettingMnemonic])
	assert.Equal(t, "bitcoin", cfg.Network)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, uint64(10000), cfg.InvoiceAmount)
}

func TestLoadConfigWithoutMnemonic(t *testing.T) {
	t.Setenv("NODE_API_KEY", "0201")
	t.Setenv("NODE_INVITE_CODE", "invite")
	t.Setenv("MNEMONIC", "")

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	_, ok := cfg.settings().Optional(console.SettingMnemonic)
	assert.False(t, ok)
}

func TestLoadConfigFlagsOverrideDefaults(t *testing.T) {
	cfg, err := loadConfig([]string{
		"--network=regtest",
		"--environment=staging",
		"--lnd.host=node.example:10009",
		"--lnd.tlscertpath=/tmp/tls.cert",
		"--abortonpaymentfailure",
	})
	require.NoError(t, err)

	assert.Equal(t, "regtest", cfg.Network)
	assert.True(t, cfg.AbortOnPaymentFailure)

	sessionConfig := cfg.sessionDefaults()
	assert.Equal(t, node.Staging, sessionConfig.Environment)
	assert.Equal(t, "node.example:10009", sessionConfig.Host)
	assert.Equal(t, "/tmp/tls.cert", sessionConfig.TLSCertPath)
}

func TestLoadConfigRejectsUnknownNetwork(t *testing.T) {
	_, err := loadConfig([]string{"--network=dogecoin"})
	assert.Error(t, err)
}

func TestLoadConfigRejectsOversizedInvoiceAmount(t *testing.T) {
	_, err := loadConfig([]string{"--invoiceamount", "18446744073709551615"})
	require.Error(t, err)

	cfg, err := loadConfig([]string{"--invoiceamount", "9223372036854775"})
	require.NoError(t, err)
	assert.Equal(t, uint64(node.MaxInvoiceAmountSat), cfg.InvoiceAmount)
}
