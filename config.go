package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/lnconsole/console"
	"github.com/the-lightning-land/lnconsole/node"
)

type lndConfig struct {
	Host        string `long:"host" description:"host:port of the lnd gRPC interface (defaults depend on the environment)"`
	TLSCertPath string `long:"tlscertpath" description:"Path to the TLS certificate of lnd"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Address the profiling server listens on, e.g. localhost:6060"`
}

type config struct {
	ShowVersion           bool            `short:"V" long:"version" description:"Display version information and exit"`
	Debug                 bool            `long:"debug" description:"Start in debug mode"`
	APIKey                string          `long:"apikey" env:"NODE_API_KEY" description:"Hex encoded macaroon that authenticates the node session"`
	InviteCode            string          `long:"invitecode" env:"NODE_INVITE_CODE" description:"Invite code used when a new node gets registered"`
	Mnemonic              string          `long:"mnemonic" env:"MNEMONIC" description:"Mnemonic of the node; a new one is generated when empty"`
	Network               string          `long:"network" default:"bitcoin" choice:"bitcoin" choice:"testnet" choice:"signet" choice:"regtest" description:"Bitcoin network of the node"`
	Environment           string          `long:"environment" default:"production" choice:"production" choice:"staging" description:"Environment of the node service"`
	InvoiceAmount         uint64          `long:"invoiceamount" default:"10000" description:"Amount in sat of the invoice created for new or empty nodes"`
	InvoiceMemo           string          `long:"invoicememo" default:"My first lnconsole invoice" description:"Memo of the invoice created for new or empty nodes"`
	AbortOnPaymentFailure bool            `long:"abortonpaymentfailure" description:"Exit when a payment fails instead of asking for the next invoice"`
	Lnd                   lndConfig       `group:"lnd" namespace:"lnd"`
	Profiling             profilingConfig `group:"profiling" namespace:"profiling"`
}

// loadConfig parses command line arguments. Settings without a flag fall
// back to their environment variables.
func loadConfig(args []string) (*config, error) {
	cfg := config{}

	parser := flags.NewParser(&cfg, flags.Default)

	_, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	if cfg.InvoiceAmount > node.MaxInvoiceAmountSat {
		return nil, errors.Errorf("invoice amount must not exceed %d sat", uint64(node.MaxInvoiceAmountSat))
	}

	return &cfg, nil
}

func (c *config) settings() console.Settings {
	return console.Settings{
		console.SettingAPIKey:     c.APIKey,
		console.SettingInviteCode: c.InviteCode,
		console.SettingMnemonic:   c.Mnemonic,
	}
}

// sessionDefaults returns the session config of the configured environment
// with the lnd overrides applied.
func (c *config) sessionDefaults() *node.Config {
	sessionConfig := node.DefaultConfig(node.Environment(c.Environment))
	c.applyLnd(sessionConfig)

	return sessionConfig
}

func (c *config) applyLnd(sessionConfig *node.Config) {
	if c.Lnd.Host != "" {
		sessionConfig.Host = c.Lnd.Host
	}

	if c.Lnd.TLSCertPath != "" {
		sessionConfig.TLSCertPath = c.Lnd.TLSCertPath
	}
}
