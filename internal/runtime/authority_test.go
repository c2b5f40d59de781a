package runtime

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramSignerAddress(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	seed := solana.NewWallet().PublicKey().Bytes()

	want, bump, err := solana.FindProgramAddress([][]byte{seed}, programID)
	require.NoError(t, err)

	signer := NewProgramSigner([][]byte{seed}, bump)
	got, err := signer.Address(programID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, bump, signer.Bump())

	// Callers cannot alter the signer through the returned seeds or the input.
	signer.Seeds()[0][0] ^= 0xff
	seed[0] ^= 0xff
	again, err := signer.Address(programID)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestAuthorityKinds(t *testing.T) {
	var auths []Authority
	key := solana.NewWallet().PublicKey()
	auths = append(auths, SignerAuthority(key), NewProgramSigner(nil, 0))

	s, ok := auths[0].(Signer)
	require.True(t, ok)
	assert.Equal(t, key, s.Key)

	_, ok = auths[1].(*ProgramSigner)
	assert.True(t, ok)
}
