package device

import (
	"crypto/ecdh"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Device is an app install that mirrors the category set into its
// operating system registry and receives notifications over Web Push.
type Device struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Platform  string    `json:"platform" db:"platform"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dh    string    `json:"p256dh" db:"p256dh"`
	Auth      string    `json:"auth" db:"auth"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ErrGone is returned by push transports when the push service reports that
// the device's subscription no longer exists.
var ErrGone = errors.New("push subscription gone")

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

// Normalize validates the push key material and rewrites it to unpadded
// base64url so every stored device uses the same encoding.
func (d *Device) Normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Platform = strings.ToLower(strings.TrimSpace(d.Platform))

	switch d.Platform {
	case PlatformAndroid, PlatformIOS, PlatformWeb:
	case "":
		d.Platform = PlatformWeb
	default:
		return fmt.Errorf("unsupported platform %q", d.Platform)
	}

	if err := validateEndpoint(d.Endpoint); err != nil {
		return err
	}

	p256dh, err := normalizeP256DH(d.P256dh)
	if err != nil {
		return err
	}
	auth, err := normalizeAuthSecret(d.Auth)
	if err != nil {
		return err
	}

	d.Endpoint = strings.TrimSpace(d.Endpoint)
	d.P256dh = p256dh
	d.Auth = auth
	return nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u == nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("endpoint must use http or https")
	}
	return nil
}

func normalizeP256DH(raw string) (string, error) {
	decoded, err := decodeBase64URL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid p256dh encoding")
	}
	if len(decoded) != 65 || decoded[0] != 0x04 {
		return "", fmt.Errorf("invalid p256dh key format")
	}
	if _, err := ecdh.P256().NewPublicKey(decoded); err != nil {
		return "", fmt.Errorf("invalid p256dh point")
	}
	return base64.RawURLEncoding.EncodeToString(decoded), nil
}

func normalizeAuthSecret(raw string) (string, error) {
	decoded, err := decodeBase64URL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid auth encoding")
	}
	if len(decoded) != 16 {
		return "", fmt.Errorf("invalid auth length: expected 16 bytes, got %d", len(decoded))
	}
	return base64.RawURLEncoding.EncodeToString(decoded), nil
}

func decodeBase64URL(raw string) ([]byte, error) {
	key := strings.TrimSpace(raw)
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(key); err == nil {
			return decoded, nil
		}
	}
	return nil, fmt.Errorf("not base64")
}
