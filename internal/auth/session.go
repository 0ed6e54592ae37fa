package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SessionVerifier validates a session cookie value and returns its subject.
type SessionVerifier interface {
	VerifySession(value string) (string, error)
}

var errInvalidSession = errors.New("invalid session")

// HMACSessions signs sessions as base64(subject).expiry.hex(hmac-sha256).
type HMACSessions struct {
	secret []byte
	now    func() time.Time
}

var _ SessionVerifier = (*HMACSessions)(nil)

// NewHMACSessions builds a signer for the given secret.
func NewHMACSessions(secret string) *HMACSessions {
	return &HMACSessions{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

// SessionsFromSecret returns an HMAC verifier, or nil when secret is blank so
// the result can be passed straight to New.
func SessionsFromSecret(secret string) SessionVerifier {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return NewHMACSessions(secret)
}

// Issue signs a session for subject valid for ttl.
func (h *HMACSessions) Issue(subject string, ttl time.Duration) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(subject)) + "." +
		strconv.FormatInt(h.now().Add(ttl).Unix(), 10)
	return payload + "." + h.sign(payload)
}

// VerifySession checks signature and expiry.
func (h *HMACSessions) VerifySession(value string) (string, error) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 {
		return "", errInvalidSession
	}
	payload, sig := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(h.sign(payload))) {
		return "", errInvalidSession
	}
	encoded, expiryText, ok := strings.Cut(payload, ".")
	if !ok {
		return "", errInvalidSession
	}
	expiry, err := strconv.ParseInt(expiryText, 10, 64)
	if err != nil || h.now().Unix() >= expiry {
		return "", errInvalidSession
	}
	subject, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(subject) == 0 {
		return "", errInvalidSession
	}
	return string(subject), nil
}

func (h *HMACSessions) sign(payload string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
