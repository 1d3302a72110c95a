package webpush

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"shiny/service/device"
	"shiny/service/util"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T, endpoint string) device.Device {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return device.Device{
		ID:       "dev-1",
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func testPusher(t *testing.T, srv *httptest.Server) *Pusher {
	t.Helper()
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return NewPusher(Options{
		VAPIDPublicKey:  publicKey,
		VAPIDPrivateKey: privateKey,
		Subscriber:      "ops@example.com",
		TTL:             60,
		HTTPClient:      srv.Client(),
	}, util.DiscardLogger())
}

func TestPushSendsEncryptedPayload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "60", r.Header.Get("TTL"))
		assert.Contains(t, r.Header.Get("Authorization"), "vapid")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := testPusher(t, srv)
	err := p.Push(context.Background(), testDevice(t, srv.URL+"/push/1"), []byte(`{"type":"categories"}`), webpush.UrgencyNormal)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPushReportsGoneSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	p := testPusher(t, srv)
	err := p.Push(context.Background(), testDevice(t, srv.URL+"/push/1"), []byte("x"), webpush.UrgencyLow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, device.ErrGone))
}

func TestPushReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testPusher(t, srv)
	err := p.Push(context.Background(), testDevice(t, srv.URL+"/push/1"), []byte("x"), webpush.UrgencyHigh)
	require.Error(t, err)
	assert.False(t, errors.Is(err, device.ErrGone))
	assert.Contains(t, err.Error(), "500")
}
