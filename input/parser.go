// Package input classifies free form text into payment related inputs.
package input

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/zpay32"
)

const (
	lightningScheme = "lightning:"
	bitcoinScheme   = "bitcoin:"
	lnurlPrefix     = "lnurl"
)

var ErrUnrecognizedInput = errors.New("unrecognized input")

type Parser struct {
	params *chaincfg.Params
}

func NewParser(params *chaincfg.Params) *Parser {
	return &Parser{params: params}
}

// Parse classifies s. Lightning invoices are decoded and must belong to the
// parser's network.
func (p *Parser) Parse(s string) (Input, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Errorf("%v: empty input", ErrUnrecognizedInput)
	}

	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, lightningScheme) {
		s = s[len(lightningScheme):]
		lower = lower[len(lightningScheme):]
	}

	switch {
	case strings.HasPrefix(lower, lnurlPrefix):
		return p.parseLnUrl(lower)
	case strings.HasPrefix(lower, "ln"):
		return p.parseBolt11(lower)
	case strings.HasPrefix(lower, bitcoinScheme):
		return p.parseBitcoinURI(s[len(bitcoinScheme):])
	}

	if nodeID, ok := parseNodeID(s); ok {
		return nodeID, nil
	}

	if address, err := btcutil.DecodeAddress(s, p.params); err == nil && address.IsForNet(p.params) {
		return BitcoinAddress{
			Address: address.EncodeAddress(),
			Network: p.params.Name,
		}, nil
	}

	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return URL{URL: u.String()}, nil
	}

	return nil, ErrUnrecognizedInput
}

func (p *Parser) parseBolt11(s string) (Input, error) {
	invoice, err := zpay32.Decode(s, p.params)
	if err != nil {
		return nil, errors.Errorf("Could not decode invoice: %v", err)
	}

	bolt11 := Bolt11{
		Bolt11:    s,
		Network:   p.params.Name,
		Timestamp: invoice.Timestamp,
		Expiry:    invoice.Expiry(),
	}

	if invoice.Destination != nil {
		bolt11.PayeePubkey = hex.EncodeToString(invoice.Destination.SerializeCompressed())
	}

	if invoice.PaymentHash != nil {
		bolt11.PaymentHash = hex.EncodeToString(invoice.PaymentHash[:])
	}

	if invoice.Description != nil {
		bolt11.Description = *invoice.Description
	}

	if invoice.MilliSat != nil {
		amount := uint64(*invoice.MilliSat)
		bolt11.AmountMsat = &amount
	}

	return bolt11, nil
}

func (p *Parser) parseLnUrl(s string) (Input, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, errors.Errorf("Could not decode lnurl: %v", err)
	}

	if hrp != lnurlPrefix {
		return nil, errors.Errorf("%v: unexpected lnurl prefix %q", ErrUnrecognizedInput, hrp)
	}

	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Errorf("Could not decode lnurl: %v", err)
	}

	u, err := url.Parse(string(decoded))
	if err != nil || u.Host == "" {
		return nil, errors.Errorf("%v: lnurl does not contain a url", ErrUnrecognizedInput)
	}

	return LnUrl{URL: u.String()}, nil
}

func (p *Parser) parseBitcoinURI(s string) (Input, error) {
	address, query, _ := strings.Cut(s, "?")

	decoded, err := btcutil.DecodeAddress(address, p.params)
	if err != nil {
		return nil, errors.Errorf("Could not decode bitcoin address: %v", err)
	}

	if !decoded.IsForNet(p.params) {
		return nil, errors.Errorf("bitcoin address %v is not for %v", address, p.params.Name)
	}

	result := BitcoinAddress{
		Address: decoded.EncodeAddress(),
		Network: p.params.Name,
	}

	if values, err := url.ParseQuery(query); err == nil {
		result.Label = values.Get("label")
	}

	return result, nil
}

func parseNodeID(s string) (NodeID, bool) {
	pubKey, host, _ := strings.Cut(s, "@")

	if len(pubKey) != 66 {
		return NodeID{}, false
	}

	pubKeyBytes, err := hex.DecodeString(pubKey)
	if err != nil {
		return NodeID{}, false
	}

	if _, err := btcec.ParsePubKey(pubKeyBytes); err != nil {
		return NodeID{}, false
	}

	return NodeID{
		PubKey: strings.ToLower(pubKey),
		Host:   host,
	}, true
}
