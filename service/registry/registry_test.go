package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"shiny/service/device"
	"shiny/service/util"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCategories() []Category {
	return []Category{
		{Identifier: "alerts", Actions: []ActionDescriptor{{Identifier: "reply", Title: "Reply", Type: "text_reply", Directive: DirectiveTextInput, TextInputPlaceholder: "Reply"}}},
		{Identifier: "default", Actions: []ActionDescriptor{}},
	}
}

func TestMemoryReplacesWholeSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SetCategories(ctx, sampleCategories()))
	require.NoError(t, m.SetCategories(ctx, []Category{{Identifier: "default"}}))

	got := m.Categories()
	require.Len(t, got, 1)
	assert.Equal(t, "default", got[0].Identifier)
	assert.Equal(t, 2, m.Replacements())
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	in := sampleCategories()
	require.NoError(t, m.SetCategories(context.Background(), in))

	in[0].Actions[0].Title = "mutated"
	got := m.Categories()
	got[0].Identifier = "mutated"

	again := m.Categories()
	assert.Equal(t, "alerts", again[0].Identifier)
	assert.Equal(t, "Reply", again[0].Actions[0].Title)
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.SetCategories(ctx, sampleCategories()), context.Canceled)
	assert.Equal(t, 0, m.Replacements())
}

type failingRegistry struct{ err error }

func (f failingRegistry) SetCategories(context.Context, []Category) error { return f.err }

func TestMultiStopsAtFirstFailure(t *testing.T) {
	first, last := NewMemory(), NewMemory()
	boom := errors.New("boom")
	multi := Multi{first, failingRegistry{err: boom}, last}

	err := multi.SetCategories(context.Background(), sampleCategories())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.Replacements())
	assert.Equal(t, 0, last.Replacements())
}

type fakeDeviceStore struct {
	mu      sync.Mutex
	devices []device.Device
	removed []string
	listErr error
}

func (f *fakeDeviceStore) List(context.Context) ([]device.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]device.Device(nil), f.devices...), f.listErr
}

func (f *fakeDeviceStore) Remove(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return true, nil
}

type fakePusher struct {
	mu       sync.Mutex
	payloads map[string][]byte
	fail     map[string]error
}

func (f *fakePusher) Push(_ context.Context, d device.Device, payload []byte, _ webpush.Urgency) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[d.ID]; err != nil {
		return err
	}
	if f.payloads == nil {
		f.payloads = make(map[string][]byte)
	}
	f.payloads[d.ID] = payload
	return nil
}

func TestDevicesPushesFullSetToEveryDevice(t *testing.T) {
	store := &fakeDeviceStore{devices: []device.Device{{ID: "a"}, {ID: "b"}}}
	pusher := &fakePusher{}
	reg := NewDevices(store, pusher, util.DiscardLogger())

	require.NoError(t, reg.SetCategories(context.Background(), sampleCategories()))
	require.Len(t, pusher.payloads, 2)

	var msg CategoriesMessage
	require.NoError(t, json.Unmarshal(pusher.payloads["a"], &msg))
	assert.Equal(t, MessageTypeCategories, msg.Type)
	assert.Equal(t, sampleCategories(), msg.Categories)
}

func TestDevicesPrunesGoneDevices(t *testing.T) {
	store := &fakeDeviceStore{devices: []device.Device{{ID: "a"}, {ID: "gone"}}}
	pusher := &fakePusher{fail: map[string]error{"gone": fmt.Errorf("wrapped: %w", device.ErrGone)}}
	reg := NewDevices(store, pusher, util.DiscardLogger())

	require.NoError(t, reg.SetCategories(context.Background(), sampleCategories()))
	assert.Equal(t, []string{"gone"}, store.removed)
}

func TestDevicesReportsPushFailures(t *testing.T) {
	store := &fakeDeviceStore{devices: []device.Device{{ID: "a"}, {ID: "b"}}}
	boom := errors.New("push service down")
	pusher := &fakePusher{fail: map[string]error{"b": boom}}
	reg := NewDevices(store, pusher, util.DiscardLogger())

	err := reg.SetCategories(context.Background(), sampleCategories())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, pusher.payloads, "a")
	assert.Empty(t, store.removed)
}

func TestDevicesListFailure(t *testing.T) {
	store := &fakeDeviceStore{listErr: errors.New("db closed")}
	reg := NewDevices(store, &fakePusher{}, util.DiscardLogger())

	assert.Error(t, reg.SetCategories(context.Background(), sampleCategories()))
}

func TestEncodeCategoriesNeverNull(t *testing.T) {
	payload, err := EncodeCategories(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"categories","categories":[]}`, string(payload))
}
