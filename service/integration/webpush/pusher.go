package webpush

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"shiny/service/device"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type Options struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
	// HTTPClient overrides the client used to reach push services.
	HTTPClient webpush.HTTPClient
}

// Pusher delivers encrypted Web Push messages to enrolled devices.
type Pusher struct {
	opts   Options
	logger *slog.Logger
}

func NewPusher(opts Options, logger *slog.Logger) *Pusher {
	return &Pusher{opts: opts, logger: logger}
}

func (p *Pusher) PublicKey() string {
	return p.opts.VAPIDPublicKey
}

func (p *Pusher) Push(ctx context.Context, d device.Device, payload []byte, urgency webpush.Urgency) error {
	sub := &webpush.Subscription{
		Endpoint: d.Endpoint,
		Keys: webpush.Keys{
			P256dh: d.P256dh,
			Auth:   d.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		HTTPClient:      p.opts.HTTPClient,
		Subscriber:      p.opts.Subscriber,
		TTL:             p.opts.TTL,
		Urgency:         urgency,
		VAPIDPublicKey:  p.opts.VAPIDPublicKey,
		VAPIDPrivateKey: p.opts.VAPIDPrivateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to send webpush: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("device %s: %w (status %d)", d.ID, device.ErrGone, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("webpush returned status %d", resp.StatusCode)
	}

	p.logger.Debug("Sent webpush message", "device", d.ID, "bytes", len(payload))
	return nil
}
