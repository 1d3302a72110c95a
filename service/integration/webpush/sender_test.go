package webpush

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shiny/service/delivery"
	"shiny/service/device"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDevices struct {
	mu      sync.Mutex
	devices []device.Device
	listErr error
}

func (m *memoryDevices) List(context.Context) ([]device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]device.Device(nil), m.devices...), m.listErr
}

func (m *memoryDevices) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.devices {
		if d.ID == id {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestSenderPushesToDevicesAndPrunesGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	live := testDevice(t, srv.URL+"/live")
	live.ID = "live"
	gone := testDevice(t, srv.URL+"/gone")
	gone.ID = "gone"
	devices := &memoryDevices{devices: []device.Device{live, gone}}

	s := NewSender(devices, testPusher(t, srv), testPusher(t, srv).logger)
	err := s.Send(context.Background(), delivery.Rendered{Channel: "default", Message: "hi"})
	require.NoError(t, err)

	remaining, _ := devices.List(context.Background())
	require.Len(t, remaining, 1)
	assert.Equal(t, "live", remaining[0].ID)
}

func TestSenderWithoutDevicesIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := NewSender(&memoryDevices{}, testPusher(t, srv), testPusher(t, srv).logger)
	err := s.Send(context.Background(), delivery.Rendered{Message: "hi"})
	assert.True(t, delivery.IsPermanent(err))
}

func TestSenderReportsTransientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := testDevice(t, srv.URL+"/x")
	s := NewSender(&memoryDevices{devices: []device.Device{d}}, testPusher(t, srv), testPusher(t, srv).logger)

	err := s.Send(context.Background(), delivery.Rendered{Message: "hi"})
	require.Error(t, err)
	assert.False(t, delivery.IsPermanent(err))
}

func TestSenderListFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := NewSender(&memoryDevices{listErr: errors.New("db closed")}, testPusher(t, srv), testPusher(t, srv).logger)
	assert.Error(t, s.Send(context.Background(), delivery.Rendered{Message: "hi"}))
}
