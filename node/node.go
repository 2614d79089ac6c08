package node

import (
	"context"
)

// Credentials identify a node with the hosting infrastructure. They are
// produced by RecoverNode or RegisterNode and handed to Connect, which
// prefers AdminMacaroon over the configured API key when it is set.
type Credentials struct {
	Network        Network
	WalletPassword []byte
	// AdminMacaroon is only returned when a node was freshly registered.
	AdminMacaroon []byte
}

type NodeInfo struct {
	Id             string
	Alias          string
	BlockHeight    uint32
	SyncedToChain  bool
	ActiveChannels uint32
	MaxPayableMsat uint64
	InboundMsat    uint64
}

type Invoice struct {
	Bolt11      string
	PaymentHash string
	AmountMsat  uint64
	Memo        string
}

type Payment struct {
	PaymentHash     string
	PaymentPreimage string
	AmountMsat      uint64
	FeeMsat         uint64
	Bolt11          string
}

// Connector is the session-less part of the node service.
type Connector interface {
	RecoverNode(ctx context.Context, network Network, seed []byte) (*Credentials, error)
	RegisterNode(ctx context.Context, network Network, seed []byte, inviteCode string) (*Credentials, error)
	Connect(ctx context.Context, config *Config, seed []byte, credentials *Credentials, listener EventListener) (Session, error)
}

// Session is a started node session. Implementations are safe for
// concurrent use and deliver events to the listener from their own
// goroutines.
type Session interface {
	// NodeInfo returns nil without an error when the node has no info yet.
	NodeInfo(ctx context.Context) (*NodeInfo, error)
	ReceivePayment(ctx context.Context, amountSat uint64, memo string) (*Invoice, error)
	// SendPayment pays a bolt11 invoice. amountMsat overrides the invoice
	// amount and may be nil.
	SendPayment(ctx context.Context, bolt11 string, amountMsat *uint64) (*Payment, error)
	// Done is closed when the session can no longer deliver settled
	// invoices. Err then reports why.
	Done() <-chan struct{}
	Err() error
	Stop() error
}
