package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"shiny/service/delivery"
	"shiny/service/device"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type DeviceStore interface {
	List(ctx context.Context) ([]device.Device, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// NotificationMessage is the payload devices receive for a notification.
type NotificationMessage struct {
	Type         string            `json:"type"`
	Notification delivery.Rendered `json:"notification"`
}

const MessageTypeNotification = "notification"

// Sender delivers notifications to every enrolled device.
type Sender struct {
	devices DeviceStore
	pusher  *Pusher
	logger  *slog.Logger
}

func NewSender(devices DeviceStore, pusher *Pusher, logger *slog.Logger) *Sender {
	return &Sender{devices: devices, pusher: pusher, logger: logger}
}

func (s *Sender) Send(ctx context.Context, msg delivery.Rendered) error {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return delivery.NewPermanentError(fmt.Errorf("no devices enrolled"))
	}

	payload, err := json.Marshal(NotificationMessage{Type: MessageTypeNotification, Notification: msg})
	if err != nil {
		return delivery.NewPermanentError(fmt.Errorf("failed to marshal notification: %w", err))
	}

	delivered := 0
	var lastErr error
	for _, d := range devices {
		err := s.pusher.Push(ctx, d, payload, webpush.UrgencyHigh)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, device.ErrGone):
			s.logger.Info("Pruning unsubscribed device", "device", d.ID)
			if _, rmErr := s.devices.Remove(ctx, d.ID); rmErr != nil {
				s.logger.Warn("Failed to prune device", "device", d.ID, "error", rmErr)
			}
		default:
			s.logger.Warn("Failed to push notification to device", "device", d.ID, "error", err)
			lastErr = err
		}
	}

	if delivered == 0 {
		if lastErr == nil {
			return delivery.NewPermanentError(fmt.Errorf("every enrolled device has unsubscribed"))
		}
		return lastErr
	}
	return nil
}
