package node

// Event is one of the closed set of events a session delivers to its
// EventListener.
type Event interface {
	isEvent()
}

type InvoicePaidEvent struct {
	PaymentHash string
	Bolt11      string
	AmountMsat  uint64
}

type NewBlockEvent struct {
	Height uint32
}

type SyncedEvent struct{}

type PaymentSucceededEvent struct {
	Payment *Payment
}

type PaymentFailedEvent struct {
	Bolt11 string
	Error  string
}

type BackupStartedEvent struct{}

type BackupSucceededEvent struct{}

type BackupFailedEvent struct {
	Error string
}

func (InvoicePaidEvent) isEvent()      {}
func (NewBlockEvent) isEvent()         {}
func (SyncedEvent) isEvent()           {}
func (PaymentSucceededEvent) isEvent() {}
func (PaymentFailedEvent) isEvent()    {}
func (BackupStartedEvent) isEvent()    {}
func (BackupSucceededEvent) isEvent()  {}
func (BackupFailedEvent) isEvent()     {}

type EventListener interface {
	OnEvent(e Event)
}

// EventListenerFunc adapts a plain function to an EventListener.
type EventListenerFunc func(e Event)

func (f EventListenerFunc) OnEvent(e Event) {
	f(e)
}
