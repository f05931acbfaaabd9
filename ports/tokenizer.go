package ports

// Tokenizer seals account key material into challenge-scoped session tokens
type Tokenizer interface {
	// Encode seals keyString, binding the token to challengeID.
	Encode(keyString string, challengeID string) (string, error)

	// Decode opens token and returns the sealed key string. It fails when the token
	// was tampered with or was issued for a different challenge.
	Decode(token string, challengeID string) (string, error)
}
