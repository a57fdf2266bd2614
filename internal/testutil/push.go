package testutil

import (
	"context"
	"net/http"
	"sync"

	"jaothui-api-server/internal/push"
)

// Sent records one delivery attempt seen by FakeSender.
type Sent struct {
	Target  push.Target
	Payload push.Payload
}

// FakeSender returns scripted outcomes keyed by endpoint. Unscripted endpoints succeed.
type FakeSender struct {
	mu       sync.Mutex
	outcomes map[string]error
	sent     []Sent
}

func NewFakeSender() *FakeSender {
	return &FakeSender{outcomes: make(map[string]error)}
}

// FailWith scripts err for endpoint.
func (f *FakeSender) FailWith(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[endpoint] = err
}

// Gone scripts an HTTP 410 for endpoint.
func (f *FakeSender) Gone(endpoint string) {
	f.FailWith(endpoint, &push.DeliveryError{StatusCode: http.StatusGone, Body: "expired"})
}

func (f *FakeSender) Send(_ context.Context, t push.Target, p push.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{Target: t, Payload: p})
	return f.outcomes[t.Endpoint]
}

// Sent returns a copy of every attempt so far.
func (f *FakeSender) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sent...)
}
