// Package bootstrap decides whether a seed belongs to an existing node or
// whether a new one has to be registered.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/lnconsole/node"
)

var ErrBootstrapFailed = errors.New("bootstrap failed")

// Error is returned when neither recovery nor registration succeeded.
type Error struct {
	RecoverErr  error
	RegisterErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: could not recover node (%v) nor register one (%v)",
		ErrBootstrapFailed, e.RecoverErr, e.RegisterErr)
}

func (e *Error) Unwrap() []error {
	return []error{ErrBootstrapFailed, e.RegisterErr}
}

type Logger interface {
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Debugf(format string, args ...interface{}) {}

type Config struct {
	Connector  node.Connector
	Network    node.Network
	InviteCode string
	Logger     Logger
}

// RecoverOrRegister recovers the node of a seed and falls back to
// registering a new one when recovery fails for any reason. The returned
// flag reports whether the node was freshly created.
func RecoverOrRegister(ctx context.Context, config *Config, seed []byte) (*node.Credentials, bool, error) {
	var log Logger = noopLogger{}
	if config.Logger != nil {
		log = config.Logger
	}

	log.Infof("Checking whether user has an existing node.")

	creds, recoverErr := config.Connector.RecoverNode(ctx, config.Network, seed)
	if recoverErr == nil {
		log.Infof("User has existing node.")
		return creds, false, nil
	}

	log.Debugf("Could not recover node: %v", recoverErr)
	log.Infof("No existing node yet, creating a new node.")

	creds, err := config.Connector.RegisterNode(ctx, config.Network, seed, config.InviteCode)
	if err != nil {
		return nil, false, &Error{RecoverErr: recoverErr, RegisterErr: err}
	}

	return creds, true, nil
}
