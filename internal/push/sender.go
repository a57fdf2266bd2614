package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

const (
	// DefaultTTL keeps an undelivered message at the push service for a day.
	DefaultTTL = 86400

	maxErrorBody = 512
)

// Target is one device endpoint with its encryption keys.
type Target struct {
	ID       string
	Endpoint string
	P256dh   string
	Auth     string
}

// Sender delivers one payload to one target. Failures are *DeliveryError.
type Sender interface {
	Send(ctx context.Context, t Target, p Payload) error
}

// DeliveryError is a failed send. StatusCode is zero when no response arrived.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("push service responded %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("push delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Permanent reports whether the endpoint is gone and must not be retried.
func (e *DeliveryError) Permanent() bool {
	return e.StatusCode == http.StatusGone || e.StatusCode == http.StatusNotFound
}

// IsPermanent reports whether err carries a permanent delivery failure.
func IsPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Permanent()
}

type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subscriber is the contact email; webpush-go adds the mailto: scheme.
	Subscriber string
	TTL        int
	HTTPClient *http.Client
}

// WebPushSender delivers payloads with VAPID authentication and aes128gcm encryption.
type WebPushSender struct {
	cfg WebPushConfig
}

func NewWebPushSender(cfg WebPushConfig) (*WebPushSender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, ErrDisabled
	}
	if cfg.Subscriber == "" {
		return nil, errors.New("push: VAPID contact email not configured")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &WebPushSender{cfg: cfg}, nil
}

func (s *WebPushSender) Send(ctx context.Context, t Target, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("encoding payload: %w", err)}
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body,
		&webpush.Subscription{
			Endpoint: t.Endpoint,
			Keys:     webpush.Keys{Auth: t.Auth, P256dh: t.P256dh},
		},
		&webpush.Options{
			HTTPClient:      s.cfg.HTTPClient,
			Subscriber:      s.cfg.Subscriber,
			TTL:             s.cfg.TTL,
			Urgency:         webpush.UrgencyHigh,
			VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		},
	)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// GenerateVAPIDKeys returns a new base64url key pair.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}

// ErrDisabled is returned by DisabledSender.
var ErrDisabled = errors.New("push: VAPID keys not configured")

// DisabledSender fails every send transiently, so subscriptions survive until
// keys are configured.
type DisabledSender struct{}

func (DisabledSender) Send(context.Context, Target, Payload) error {
	return &DeliveryError{Err: ErrDisabled}
}
