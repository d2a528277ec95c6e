package keyring

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURI_Deterministic(t *testing.T) {
	a1, err := FromURI("//Alice")
	require.NoError(t, err)
	a2, err := FromURI("//Alice")
	require.NoError(t, err)
	b, err := FromURI("//Bob")
	require.NoError(t, err)

	assert.Equal(t, a1.Address(), a2.Address())
	assert.NotEqual(t, a1.Address(), b.Address())
	assert.Len(t, string(a1.Address()), 42)
}

func TestFromURI_HexPrivateKey(t *testing.T) {
	kp, err := Generate("random")
	require.NoError(t, err)

	again, err := FromURI(kp.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), again.Address())

	_, err = FromURI("")
	assert.Error(t, err)
}

func TestSign_RecoversAddress(t *testing.T) {
	kp, err := FromURI("//Charlie")
	require.NoError(t, err)

	payload := []byte("extrinsic payload")
	sig, err := kp.Sign(payload)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(crypto.Keccak256(payload), sig)
	require.NoError(t, err)
	assert.Equal(t, string(kp.Address()), strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()))
}

func TestKeyJSON_RoundTripsIdentity(t *testing.T) {
	kp, err := FromURI("//testUser_export")
	require.NoError(t, err)

	keyJSON, err := kp.ToJSON("secret")
	require.NoError(t, err)

	r := New()
	imported, err := r.AddFromJSON(keyJSON, "secret")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), imported.Address())

	got, ok := r.Get(kp.Address())
	require.True(t, ok)
	assert.Same(t, imported, got)

	_, err = r.AddFromJSON(keyJSON, "wrong")
	assert.Error(t, err)
}

func TestKeyring_FromURIStoresPair(t *testing.T) {
	r := New()
	s1, err := r.FromURI("//Dave")
	require.NoError(t, err)
	_, err = r.FromURI("//Eve")
	require.NoError(t, err)
	_, err = r.FromURI("//Dave")
	require.NoError(t, err)

	pairs := r.Pairs()
	require.Len(t, pairs, 2)
	assert.True(t, pairs[0].Address() < pairs[1].Address())

	_, ok := r.Get(s1.Address())
	assert.True(t, ok)
}
