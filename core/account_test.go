package core

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverAccount(t *testing.T) {
	require := require.New(t)

	acct, err := NewAccount()
	require.NoError(err)
	require.True(strings.HasPrefix(acct.Address, "0x"))
	require.Len(acct.Address, 2+64)

	recovered, err := RecoverAccount(acct.KeyString())
	require.NoError(err)
	require.Equal(acct.Address, recovered.Address)
	require.Equal(acct.PrivateKey, recovered.PrivateKey)
	require.Equal(SchemeEd25519, recovered.Scheme)
}

func TestKeyStringLayout(t *testing.T) {
	require := require.New(t)

	acct, err := NewAccount()
	require.NoError(err)

	raw, err := base64.StdEncoding.DecodeString(acct.KeyString())
	require.NoError(err)
	require.Len(raw, 1+ed25519.SeedSize)
	require.Equal(byte(SchemeEd25519), raw[0])
}

func TestRecoverAccountMalformed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	tests := map[string]string{
		"not base64":     "%%%",
		"too short":      base64.StdEncoding.EncodeToString([]byte{0x00, 0x01}),
		"unknown scheme": base64.StdEncoding.EncodeToString(append([]byte{0x01}, seed...)),
		"empty":          "",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := RecoverAccount(input)
			require.ErrorIs(t, err, ErrMalformedKey)
		})
	}
}

func TestSignVerifies(t *testing.T) {
	require := require.New(t)

	acct, err := NewAccount()
	require.NoError(err)

	msg := []byte("publish")
	require.True(ed25519.Verify(acct.PublicKey(), msg, acct.Sign(msg)))
}

func TestChallengeValidate(t *testing.T) {
	valid := Challenge{Contract: "ctf-01", Module: "m", SolvedEvent: "Solved", Flag: "flag{x}"}
	require.NoError(t, valid.Validate())

	noEvent := valid
	noEvent.SolvedEvent = ""
	require.ErrorContains(t, noEvent.Validate(), "solved_event")

	negative := valid
	negative.Constructor.Value = -1
	require.Error(t, negative.Validate())
}

func TestKindOf(t *testing.T) {
	require := require.New(t)

	err := Wrap(KindInfrastructure, ErrNoGasCoin)
	require.Equal(KindInfrastructure, KindOf(err))
	require.ErrorIs(err, ErrNoGasCoin)
	require.Equal(ErrNoGasCoin.Error(), err.Error())

	require.Equal(KindUnknown, KindOf(ErrInvalidToken))

	missing := RequiredArgument("tx_hash")
	require.Equal(KindValidation, KindOf(missing))
	require.Equal("tx_hash", missing.Meta["argument"])
}
