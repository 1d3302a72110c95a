package util

import (
	"crypto/subtle"
	"encoding/base64"
	"net"
	"net/http"
	"strings"
)

// VerifyAPIKey accepts the key as a Bearer token, as the Basic auth password,
// or in the X-API-Key header.
func VerifyAPIKey(r *http.Request, apiKey string) bool {
	if apiKey == "" {
		return false
	}

	password, ok := presentedKey(r)
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(apiKey)) == 1
}

func presentedKey(r *http.Request) (string, bool) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, true
	}

	auth := r.Header.Get("Authorization")
	switch {
	case strings.HasPrefix(auth, "Bearer "):
		return strings.TrimPrefix(auth, "Bearer "), true
	case strings.HasPrefix(auth, "Basic "):
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
		if err != nil {
			return "", false
		}
		_, password, found := strings.Cut(string(decoded), ":")
		return password, found
	default:
		return "", false
	}
}

func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

func GetLANIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}

	return ""
}
