package input

import (
	"time"
)

// Input is one of the closed set of inputs Parse recognizes.
type Input interface {
	isInput()
}

type Bolt11 struct {
	Bolt11      string
	Network     string
	PayeePubkey string
	PaymentHash string
	Description string
	// AmountMsat is nil for invoices without an amount.
	AmountMsat *uint64
	Timestamp  time.Time
	Expiry     time.Duration
}

type BitcoinAddress struct {
	Address string
	Network string
	Label   string
}

type NodeID struct {
	PubKey string
	Host   string
}

type LnUrl struct {
	URL string
}

type URL struct {
	URL string
}

func (Bolt11) isInput()         {}
func (BitcoinAddress) isInput() {}
func (NodeID) isInput()         {}
func (LnUrl) isInput()          {}
func (URL) isInput()            {}
