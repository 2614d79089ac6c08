package settlement

import (
	"github.com/the-lightning-land/lnconsole/node"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Warnf(format string, args ...interface{})  {}

// compile time check for protocol compatibility
var _ node.EventListener = (*Listener)(nil)

type ListenerConfig struct {
	Notifier *Notifier
	Logger   Logger
}

// Listener binds session events to a Notifier. Settled inbound payments
// raise the notifier and payment outcomes are logged.
type Listener struct {
	notifier *Notifier
	log      Logger
}

func NewListener(config *ListenerConfig) *Listener {
	listener := &Listener{
		notifier: config.Notifier,
	}

	if config.Logger != nil {
		listener.log = config.Logger
	} else {
		listener.log = noopLogger{}
	}

	return listener
}

func (l *Listener) OnEvent(e node.Event) {
	switch e := e.(type) {
	case node.InvoicePaidEvent:
		l.log.Debugf("Invoice %v got settled", e.PaymentHash)
		l.notifier.Raise()
	case node.PaymentSucceededEvent:
		l.log.Infof("Payment succeeded.")
	case node.PaymentFailedEvent:
		l.log.Infof("Payment failed: %v", e.Error)
	case node.NewBlockEvent:
	case node.SyncedEvent:
	case node.BackupStartedEvent:
	case node.BackupSucceededEvent:
	case node.BackupFailedEvent:
	default:
		l.log.Warnf("Ignoring unknown event %T", e)
	}
}
