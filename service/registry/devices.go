package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"shiny/service/device"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type DeviceStore interface {
	List(ctx context.Context) ([]device.Device, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type Pusher interface {
	Push(ctx context.Context, d device.Device, payload []byte, urgency webpush.Urgency) error
}

// CategoriesMessage is the payload devices receive. The app replaces its
// operating system category set with Categories on receipt.
type CategoriesMessage struct {
	Type       string     `json:"type"`
	Categories []Category `json:"categories"`
}

const MessageTypeCategories = "categories"

// Devices mirrors the category set onto every enrolled device.
type Devices struct {
	store  DeviceStore
	pusher Pusher
	logger *slog.Logger
}

func NewDevices(store DeviceStore, pusher Pusher, logger *slog.Logger) *Devices {
	return &Devices{store: store, pusher: pusher, logger: logger}
}

func EncodeCategories(categories []Category) ([]byte, error) {
	if categories == nil {
		categories = []Category{}
	}
	return json.Marshal(CategoriesMessage{Type: MessageTypeCategories, Categories: categories})
}

func (d *Devices) SetCategories(ctx context.Context, categories []Category) error {
	payload, err := EncodeCategories(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	devices, err := d.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	var errs []error
	for _, dev := range devices {
		err := d.pusher.Push(ctx, dev, payload, webpush.UrgencyNormal)
		switch {
		case err == nil:
		case errors.Is(err, device.ErrGone):
			d.logger.Info("Pruning unsubscribed device", "device", dev.ID)
			if _, rmErr := d.store.Remove(ctx, dev.ID); rmErr != nil {
				d.logger.Warn("Failed to prune device", "device", dev.ID, "error", rmErr)
			}
		default:
			errs = append(errs, fmt.Errorf("device %s: %w", dev.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	d.logger.Debug("Pushed categories to devices", "devices", len(devices), "categories", len(categories))
	return nil
}

// SetCategoriesFor pushes the set to one device only, used right after enrollment.
func (d *Devices) SetCategoriesFor(ctx context.Context, dev device.Device, categories []Category) error {
	payload, err := EncodeCategories(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	return d.pusher.Push(ctx, dev, payload, webpush.UrgencyNormal)
}
