package console

import (
	"fmt"

	"github.com/go-errors/errors"
)

var (
	ErrMissingSetting = errors.New("missing setting")
	ErrNoNodeInfo     = errors.New("node info is not available")
)

type Step string

const (
	StepSettings   Step = "reading settings"
	StepIdentity   Step = "resolving identity"
	StepBootstrap  Step = "bootstrapping node"
	StepStart      Step = "starting session"
	StepNodeInfo   Step = "fetching node info"
	StepInvoice    Step = "creating invoice"
	StepSettlement Step = "waiting for settlement"
	StepDispatch   Step = "dispatching payments"
)

// StepError is a fatal error. It names the step that failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("Failed %v: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// RequestError is a failure of a single operator request. The dispatch
// loop reports it and carries on.
type RequestError struct {
	Input  string
	Reason string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Reason
	}

	return fmt.Sprintf("%v: %v", e.Reason, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type missingSettingError struct {
	name string
}

func (e *missingSettingError) Error() string {
	return fmt.Sprintf("set the '%v' environment variable", e.name)
}

func (e *missingSettingError) Is(target error) bool {
	return target == ErrMissingSetting
}
