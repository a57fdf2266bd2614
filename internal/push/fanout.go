package push

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers     = 8
	DefaultSendTimeout = 10 * time.Second
)

type Result struct {
	Target Target
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// Fanout sends one payload to many targets with bounded concurrency. A failed
// send never cancels the others.
type Fanout struct {
	sender  Sender
	workers int
	timeout time.Duration
}

func NewFanout(sender Sender, workers int, timeout time.Duration) *Fanout {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Fanout{sender: sender, workers: workers, timeout: timeout}
}

// Send returns one result per target, in target order.
func (f *Fanout) Send(ctx context.Context, targets []Target, p Payload) []Result {
	results := make([]Result, len(targets))

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, t := range targets {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			err := f.sender.Send(sendCtx, t, p)
			var de *DeliveryError
			if err != nil && !errors.As(err, &de) {
				err = &DeliveryError{Err: err}
			}
			results[i] = Result{Target: t, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}
