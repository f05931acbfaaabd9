package tokenizer

import "encoding/base64"

// Header identifies version 1 of the local (symmetric) token format
const Header = "v1.local."

// expiryLen is the size of the big-endian unix expiry prefixed to the plaintext
const expiryLen = 8

var encoding = base64.RawURLEncoding

// additionalData binds the header and footer to the ciphertext
func additionalData(footer []byte) []byte {
	ad := make([]byte, 0, len(Header)+len(footer))
	ad = append(ad, Header...)
	return append(ad, footer...)
}
