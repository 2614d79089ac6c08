package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/lnconsole/input"
	"github.com/the-lightning-land/lnconsole/node"
)

const prompt = "Paste an invoice to pay in the console and press Enter."

type lineResult struct {
	line string
	err  error
}

// Dispatch reads operator input line by line and pays every line that is a
// bolt11 invoice. It returns nil once the input ends or ctx is done.
func (c *Console) Dispatch(ctx context.Context, session node.Session) error {
	for {
		fmt.Fprintln(c.out, prompt)

		line, err := c.readLine(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, io.EOF) {
			if line == "" {
				c.log.Debugf("Reached end of input")
				return nil
			}
		} else if err != nil {
			return &StepError{Step: StepDispatch, Err: err}
		}

		if err := c.handleLine(ctx, session, trimLineTerminator(line)); err != nil {
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				fmt.Fprintln(c.out, reqErr.Error())
				continue
			}

			return &StepError{Step: StepDispatch, Err: err}
		}
	}
}

// readLine reads the next line without blocking cancellation of ctx.
func (c *Console) readLine(ctx context.Context) (string, error) {
	result := make(chan lineResult, 1)

	go func() {
		line, err := c.in.ReadString('\n')
		result <- lineResult{line: line, err: err}
	}()

	select {
	case r := <-result:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// handleLine pays line if it is a bolt11 invoice. Input that is not an
// invoice yields a *RequestError.
func (c *Console) handleLine(ctx context.Context, session node.Session, line string) error {
	parsed, err := c.parser.Parse(line)
	if err != nil {
		return &RequestError{Input: line, Reason: "Input is not a bolt11 invoice", Err: err}
	}

	invoice, ok := parsed.(input.Bolt11)
	if !ok {
		c.log.Debugf("Rejecting input of type %T", parsed)
		return &RequestError{Input: line, Reason: "Input is not a bolt11 invoice"}
	}

	fmt.Fprintf(c.out, "Sending payment for invoice %v\n", invoice.Bolt11)

	_, err = session.SendPayment(ctx, invoice.Bolt11, nil)
	if err != nil {
		if c.abortOnPaymentFailure {
			return err
		}

		return &RequestError{Input: line, Reason: "Could not send payment", Err: err}
	}

	return nil
}

func trimLineTerminator(line string) string {
	if trimmed, ok := strings.CutSuffix(line, "\r\n"); ok {
		return trimmed
	}

	return strings.TrimSuffix(line, "\n")
}
