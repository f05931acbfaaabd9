package core

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// Scheme is the signature scheme flag prefixed to serialized keys and signatures.
// Only ed25519 is supported.
type Scheme byte

const SchemeEd25519 Scheme = 0x00

func (s Scheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ED25519"
	default:
		return fmt.Sprintf("Scheme(%d)", byte(s))
	}
}

// Account is a ledger identity recovered for the duration of a request.
type Account struct {
	Address    string
	Scheme     Scheme
	PrivateKey ed25519.PrivateKey
}

// NewAccount generates a fresh ed25519 account.
func NewAccount() (*Account, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newAccount(SchemeEd25519, priv), nil
}

// RecoverAccount rebuilds an account from a key string produced by KeyString.
func RecoverAccount(keyString string) (*Account, error) {
	raw, err := base64.StdEncoding.DecodeString(keyString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if len(raw) != 1+ed25519.SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedKey, 1+ed25519.SeedSize, len(raw))
	}
	if Scheme(raw[0]) != SchemeEd25519 {
		return nil, fmt.Errorf("%w: unsupported scheme %s", ErrMalformedKey, Scheme(raw[0]))
	}
	return newAccount(SchemeEd25519, ed25519.NewKeyFromSeed(raw[1:])), nil
}

func newAccount(scheme Scheme, priv ed25519.PrivateKey) *Account {
	pub := priv.Public().(ed25519.PublicKey)
	return &Account{
		Address:    DeriveAddress(scheme, pub),
		Scheme:     scheme,
		PrivateKey: priv,
	}
}

// DeriveAddress returns the 0x-prefixed blake2b-256 hash of flag || public key.
func DeriveAddress(scheme Scheme, pub ed25519.PublicKey) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{byte(scheme)})
	h.Write(pub)
	return hexutil.Encode(h.Sum(nil))
}

// PublicKey returns the account's public key.
func (a *Account) PublicKey() ed25519.PublicKey {
	return a.PrivateKey.Public().(ed25519.PublicKey)
}

// KeyString serializes the private key as base64(flag || seed).
func (a *Account) KeyString() string {
	raw := make([]byte, 0, 1+ed25519.SeedSize)
	raw = append(raw, byte(a.Scheme))
	raw = append(raw, a.PrivateKey.Seed()...)
	return base64.StdEncoding.EncodeToString(raw)
}

// Sign signs msg with the account key.
func (a *Account) Sign(msg []byte) []byte {
	return ed25519.Sign(a.PrivateKey, msg)
}
