package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/the-lightning-land/lnconsole/bootstrap"
	"github.com/the-lightning-land/lnconsole/identity"
	"github.com/the-lightning-land/lnconsole/input"
	"github.com/the-lightning-land/lnconsole/node"
	"github.com/the-lightning-land/lnconsole/settlement"
)

const (
	DefaultInvoiceAmountSat = 10000
	DefaultInvoiceMemo      = "My first lnconsole invoice"
)

type Parser interface {
	Parse(s string) (input.Input, error)
}

type Config struct {
	Connector   node.Connector
	Network     node.Network
	Environment node.Environment
	Settings    Settings
	// ConfigureSession adjusts the default session config before the
	// session is started.
	ConfigureSession      func(config *node.Config)
	Parser                Parser
	In                    io.Reader
	Out                   io.Writer
	Logger                Logger
	InvoiceAmountSat      uint64
	InvoiceMemo           string
	AbortOnPaymentFailure bool
}

// Console brings a node session online and relays operator entered
// invoices to it.
type Console struct {
	connector             node.Connector
	network               node.Network
	environment           node.Environment
	settings              Settings
	configureSession      func(config *node.Config)
	parser                Parser
	in                    *bufio.Reader
	out                   io.Writer
	log                   Logger
	notifier              *settlement.Notifier
	invoiceAmountSat      uint64
	invoiceMemo           string
	abortOnPaymentFailure bool
	sessionMtx            sync.Mutex
	session               node.Session
}

func New(config *Config) *Console {
	c := &Console{
		connector:             config.Connector,
		network:               config.Network,
		environment:           config.Environment,
		settings:              config.Settings,
		configureSession:      config.ConfigureSession,
		parser:                config.Parser,
		in:                    bufio.NewReader(config.In),
		out:                   config.Out,
		notifier:              settlement.NewNotifier(),
		invoiceAmountSat:      config.InvoiceAmountSat,
		invoiceMemo:           config.InvoiceMemo,
		abortOnPaymentFailure: config.AbortOnPaymentFailure,
	}

	if config.Logger != nil {
		c.log = config.Logger
	} else {
		c.log = noopLogger{}
	}

	if c.network == "" {
		c.network = node.Bitcoin
	}

	if c.environment == "" {
		c.environment = node.Production
	}

	if c.invoiceAmountSat == 0 {
		c.invoiceAmountSat = DefaultInvoiceAmountSat
	}

	if c.invoiceMemo == "" {
		c.invoiceMemo = DefaultInvoiceMemo
	}

	return c
}

// Run bootstraps the node session and then dispatches operator input until
// the input ends or ctx is done. Without a configured mnemonic it prints a
// new one and returns nil.
func (c *Console) Run(ctx context.Context) error {
	apiKey, err := c.settings.Required(SettingAPIKey)
	if err != nil {
		return &StepError{Step: StepSettings, Err: err}
	}

	inviteCode, err := c.settings.Required(SettingInviteCode)
	if err != nil {
		return &StepError{Step: StepSettings, Err: err}
	}

	phrase, ok := c.settings.Optional(SettingMnemonic)
	if !ok {
		return c.printNewMnemonic()
	}

	seed, err := identity.ResolveSeed(phrase)
	if err != nil {
		return &StepError{Step: StepIdentity, Err: err}
	}

	creds, isNewNode, err := bootstrap.RecoverOrRegister(ctx, &bootstrap.Config{
		Connector:  c.connector,
		Network:    c.network,
		InviteCode: inviteCode,
		Logger:     c.log,
	}, seed)
	if err != nil {
		return &StepError{Step: StepBootstrap, Err: err}
	}

	c.log.Infof("Starting the node session.")

	sessionConfig := node.DefaultConfig(c.environment)
	sessionConfig.APIKey = apiKey
	if c.configureSession != nil {
		c.configureSession(sessionConfig)
	}

	listener := settlement.NewListener(&settlement.ListenerConfig{
		Notifier: c.notifier,
		Logger:   c.log,
	})

	session, err := c.connector.Connect(ctx, sessionConfig, seed, creds, listener)
	if err != nil {
		return &StepError{Step: StepStart, Err: err}
	}

	c.setSession(session)
	defer c.stopSession()

	c.log.Infof("Fetching node info.")

	info, err := session.NodeInfo(ctx)
	if err != nil {
		return &StepError{Step: StepNodeInfo, Err: err}
	}

	if info == nil {
		return &StepError{Step: StepNodeInfo, Err: ErrNoNodeInfo}
	}

	c.log.Infof("Node id: %v, balance msat %v (%v sat)", info.Id, info.MaxPayableMsat,
		decimal.New(int64(info.MaxPayableMsat), -3).String())

	if isNewNode || info.MaxPayableMsat == 0 {
		if err := c.awaitFirstPayment(ctx, session); err != nil {
			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}

	return c.Dispatch(ctx, session)
}

func (c *Console) printNewMnemonic() error {
	mnemonic, err := identity.GenerateMnemonic()
	if err != nil {
		return &StepError{Step: StepIdentity, Err: err}
	}

	fmt.Fprintf(c.out, "Generated mnemonic: %v\n", mnemonic)
	fmt.Fprintf(c.out, "Set the environment variable '%v', and run again.\n", SettingMnemonic)

	return nil
}

// awaitFirstPayment issues a test invoice and blocks until an inbound
// payment settles. The settlement signal is subscribed to before the
// invoice exists, so a payment can not slip in between. It fails when the
// session stops delivering settlements and returns nil once ctx is done.
func (c *Console) awaitFirstPayment(ctx context.Context, session node.Session) error {
	settled := c.notifier.Subscribe()

	invoice, err := session.ReceivePayment(ctx, c.invoiceAmountSat, c.invoiceMemo)
	if err != nil {
		return &StepError{Step: StepInvoice, Err: err}
	}

	fmt.Fprintf(c.out, "Created invoice: %v\n", invoice.Bolt11)

	c.log.Infof("Waiting for the invoice to be paid... (pay it with another lightning app)")

	waitCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() {
		select {
		case <-session.Done():
			cancel(session.Err())
		case <-waitCtx.Done():
		}
	}()

	if err := c.notifier.WaitOn(waitCtx, settled); err != nil {
		if ctx.Err() != nil {
			c.log.Infof("Stopped waiting for the invoice to be paid.")
			return nil
		}

		return &StepError{Step: StepSettlement, Err: context.Cause(waitCtx)}
	}

	c.log.Infof("Invoice got paid!")

	return nil
}

func (c *Console) setSession(session node.Session) {
	c.sessionMtx.Lock()
	defer c.sessionMtx.Unlock()

	c.session = session
}

func (c *Console) stopSession() {
	c.sessionMtx.Lock()
	defer c.sessionMtx.Unlock()

	if c.session == nil {
		return
	}

	err := c.session.Stop()
	if err != nil {
		c.log.Warnf("Could not properly stop node session: %v", err)
	} else {
		c.log.Infof("Stopped node session.")
	}

	c.session = nil
}
