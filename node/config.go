package node

import (
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/go-errors/errors"
)

type Network string

const (
	Bitcoin Network = "bitcoin"
	Testnet Network = "testnet"
	Signet  Network = "signet"
	Regtest Network = "regtest"
)

// Params returns the chain parameters of the network.
func (n Network) Params() (*chaincfg.Params, error) {
	switch n {
	case Bitcoin:
		return &chaincfg.MainNetParams, nil
	case Testnet:
		return &chaincfg.TestNet3Params, nil
	case Signet:
		return &chaincfg.SigNetParams, nil
	case Regtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, errors.Errorf("unknown network %q", string(n))
	}
}

type Environment string

const (
	Production Environment = "production"
	Staging    Environment = "staging"
)

type Config struct {
	Environment Environment
	// APIKey is the hex encoded macaroon every session call is authenticated with.
	APIKey         string
	Host           string
	TLSCertPath    string
	PaymentTimeout time.Duration
	FeeLimitSat    int64
}

// DefaultConfig returns the session configuration for an environment. The
// API key is left empty and has to be set by the caller.
func DefaultConfig(env Environment) *Config {
	config := &Config{
		Environment:    env,
		Host:           "localhost:10009",
		TLSCertPath:    defaultTLSCertPath(),
		PaymentTimeout: 60 * time.Second,
		FeeLimitSat:    100,
	}

	if env == Staging {
		config.Host = "localhost:10010"
		config.PaymentTimeout = 30 * time.Second
		config.FeeLimitSat = 1000
	}

	return config
}

func defaultTLSCertPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tls.cert"
	}

	return filepath.Join(home, ".lnd", "tls.cert")
}
