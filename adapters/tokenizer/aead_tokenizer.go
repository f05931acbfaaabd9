package tokenizer

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

// AEADTokenizer implements the Tokenizer interface with XChaCha20-Poly1305.
//
// Tokens have the form header || base64url(nonce || ciphertext) [ "." base64url(footer) ].
// The header and footer are bound to the ciphertext as associated data, so the footer
// is readable but cannot be changed without invalidating the token.
type AEADTokenizer struct {
	key   []byte
	ttl   time.Duration
	now   func() time.Time
	nonce io.Reader
}

// Option configures an AEADTokenizer
type Option func(*AEADTokenizer)

// WithTTL makes tokens expire ttl after they were issued. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(t *AEADTokenizer) {
		t.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *AEADTokenizer) {
		t.now = now
	}
}

// NewAEADTokenizer creates a new tokenizer. key must be 32 bytes.
func NewAEADTokenizer(key []byte, opts ...Option) (ports.Tokenizer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	t := &AEADTokenizer{
		key:   append([]byte(nil), key...),
		now:   time.Now,
		nonce: rand.Reader,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Encode seals keyString into a token bound to challengeID
func (t *AEADTokenizer) Encode(keyString string, challengeID string) (string, error) {
	aead, err := chacha20poly1305.NewX(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	var expiry uint64
	if t.ttl > 0 {
		expiry = uint64(t.now().Add(t.ttl).Unix())
	}

	plaintext := make([]byte, expiryLen, expiryLen+len(keyString))
	binary.BigEndian.PutUint64(plaintext, expiry)
	plaintext = append(plaintext, keyString...)

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(t.nonce, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	footer := []byte(challengeID)
	sealed := aead.Seal(nonce, nonce, plaintext, additionalData(footer))

	var b strings.Builder
	b.WriteString(Header)
	b.WriteString(encoding.EncodeToString(sealed))
	if len(footer) > 0 {
		b.WriteByte('.')
		b.WriteString(encoding.EncodeToString(footer))
	}
	return b.String(), nil
}

// Decode opens token and returns the sealed key string
func (t *AEADTokenizer) Decode(token string, challengeID string) (string, error) {
	body, found := strings.CutPrefix(strings.TrimSpace(token), Header)
	if !found {
		return "", fmt.Errorf("unsupported token version: %w", core.ErrInvalidToken)
	}

	var footer []byte
	payload, rawFooter, hasFooter := strings.Cut(body, ".")
	if hasFooter {
		var err error
		footer, err = encoding.DecodeString(rawFooter)
		if err != nil {
			return "", fmt.Errorf("failed to decode footer: %w", core.ErrInvalidToken)
		}
	}

	sealed, err := encoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode payload: %w", core.ErrInvalidToken)
	}

	aead, err := chacha20poly1305.NewX(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead()+expiryLen {
		return "", fmt.Errorf("token too short: %w", core.ErrInvalidToken)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData(footer))
	if err != nil {
		return "", fmt.Errorf("failed to open token: %w", core.ErrInvalidToken)
	}

	if string(footer) != challengeID {
		return "", core.ErrTokenScope
	}

	expiry := binary.BigEndian.Uint64(plaintext[:expiryLen])
	if expiry != 0 && t.now().Unix() >= int64(expiry) {
		return "", core.ErrTokenExpired
	}

	return string(plaintext[expiryLen:]), nil
}
