package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// CSRFSessionKey is the key used to persist tokens in the session store.
	CSRFSessionKey = "csrf_token"
	// CSRFHeader carries the token on state-changing operator requests.
	CSRFHeader = "X-CSRF-Token"

	csrfNonceSize = 16
)

// CSRFManager issues tokens of the form nonce||HMAC(secret, sessionID||nonce).
// A token is accepted only for the session it was minted for and only while
// that session still stores it.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the session's token, minting one on first use.
func (m *CSRFManager) EnsureToken(_ context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("session missing")
	}
	if token := sess.Get(CSRFSessionKey); token != "" {
		return token, nil
	}
	nonce := make([]byte, csrfNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("csrf nonce: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(append(nonce, m.mac(sess.ID, nonce)...))
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken checks token against the session.
func (m *CSRFManager) VerifyToken(_ context.Context, sess *Session, token string) error {
	if sess == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	stored := sess.Get(CSRFSessionKey)
	if stored == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(stored), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= csrfNonceSize {
		return ErrCSRFTokenMismatch
	}
	nonce, sum := raw[:csrfNonceSize], raw[csrfNonceSize:]
	if !hmac.Equal(sum, m.mac(sess.ID, nonce)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) mac(sessionID string, nonce []byte) []byte {
	h := hmac.New(sha256.New, m.secret)
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(nonce)
	return h.Sum(nil)
}
