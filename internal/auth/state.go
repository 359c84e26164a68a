package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const stateKeyInfo = "smartmark-oauth-state"

// deriveStateKey derives the state signing key from the platform access key,
// so the raw key never signs anything but provider tokens.
func deriveStateKey(accessKey []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, accessKey, nil, []byte(stateKeyInfo))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// signState returns "<payload>.<mac>" where payload is provider|nonce|expiry.
func signState(key []byte, provider string, expires time.Time) string {
	payload := strings.Join([]string{provider, uuid.NewString(), strconv.FormatInt(expires.Unix(), 10)}, "|")
	enc := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return enc + "." + base64.RawURLEncoding.EncodeToString(mac(key, enc))
}

// verifyState checks the MAC and expiry and returns the provider name.
func verifyState(key []byte, state string, now time.Time) (string, error) {
	enc, sig, ok := strings.Cut(state, ".")
	if !ok {
		return "", fmt.Errorf("%w: malformed", ErrInvalidState)
	}

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, mac(key, enc)) {
		return "", fmt.Errorf("%w: bad signature", ErrInvalidState)
	}

	raw, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("%w: malformed payload", ErrInvalidState)
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: malformed payload", ErrInvalidState)
	}

	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: malformed expiry", ErrInvalidState)
	}
	if now.After(time.Unix(exp, 0)) {
		return "", fmt.Errorf("%w: expired", ErrInvalidState)
	}
	return parts[0], nil
}

func mac(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}
