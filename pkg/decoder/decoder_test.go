package decoder

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiscriminator(t *testing.T) {
	// Anchor's well-known discriminator for the "initialize" instruction.
	disc := ComputeDiscriminator(NamespaceGlobal, "initialize")
	assert.Equal(t, AnchorDiscriminator{0xaf, 0xaf, 0x6d, 0x1f, 0x0d, 0x98, 0x9b, 0xed}, disc)

	assert.NotEqual(t, disc, ComputeDiscriminator(NamespaceEvent, "initialize"))
	assert.Equal(t, "afaf6d1f0d989bed", disc.String())
}

func TestDiscriminatorMatches(t *testing.T) {
	disc := ComputeDiscriminator(NamespaceAccount, "LiquidityPool")

	assert.True(t, disc.Matches(append(disc.Bytes(), 1, 2, 3)))
	assert.False(t, disc.Matches(disc.Bytes()[:7]))
	assert.False(t, disc.Matches(make([]byte, 16)))
}

func TestRegistryDecode(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	disc := ComputeDiscriminator(NamespaceEvent, "Counted")

	registry := NewRegistry()
	registry.Register(NewAnchorDecoder("Counted", programID, disc, func(b []byte) (any, error) {
		return binary.LittleEndian.Uint64(b), nil
	}))

	payload := binary.LittleEndian.AppendUint64(disc.Bytes(), 42)

	event, err := registry.Decode(payload, &programID)
	require.NoError(t, err)
	assert.Equal(t, "Counted", event.Name)
	assert.Equal(t, uint64(42), event.Data)
	assert.Equal(t, disc, event.Discriminator)

	event, err = registry.Decode(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, programID, event.ProgramID)

	_, err = registry.Decode([]byte{1, 2, 3}, &programID)
	assert.Error(t, err)

	events := registry.DecodeAll([][]byte{payload, {9, 9}, payload}, &programID)
	assert.Len(t, events, 2)
	assert.Equal(t, []string{"Counted"}, registry.ListDecoders())
}

func TestRegistryScopesByProgram(t *testing.T) {
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()
	disc := ComputeDiscriminator(NamespaceEvent, "Shared")

	registry := NewRegistry()
	registry.Register(NewAnchorDecoder("Shared", first, disc, func([]byte) (any, error) { return "first", nil }))
	registry.Register(NewAnchorDecoder("Shared", second, disc, func([]byte) (any, error) { return "second", nil }))

	event, err := registry.Decode(disc.Bytes(), &second)
	require.NoError(t, err)
	assert.Equal(t, "second", event.Data)

	event, err = registry.Decode(disc.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, "first", event.Data)

	other := solana.NewWallet().PublicKey()
	_, err = registry.Decode(disc.Bytes(), &other)
	assert.Error(t, err)

	registry.Register(NewAnchorDecoder("Shared", first, disc, func([]byte) (any, error) { return "replaced", nil }))
	event, err = registry.Decode(disc.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", event.Data)
	assert.Equal(t, []string{"Shared"}, registry.ListDecoders())
}
