package crypto

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	os.Exit(m.Run())
}

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	addr := key.PubKey().Address()
	require.Equal(t, RicksPrefix, addr.Prefix())

	decoded, err := DecodeAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr.Raw(), decoded.Raw())
	require.Equal(t, addr, FromRaw(decoded.Raw()))
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	addr, err := NewAddress("cosmos", key.PubKey().Address().Bytes())
	require.NoError(t, err)

	_, err = DecodeAddress(addr.String())
	require.ErrorIs(t, err, ErrUnknownPrefix)

	_, err = NewAddress(RicksPrefix, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrAddressLength)

	module := ModuleAddress("auction")
	decoded, err := DecodeAddress(module.String())
	require.NoError(t, err)
	require.Equal(t, ModulePrefix, decoded.Prefix())
	require.Equal(t, module.Raw(), decoded.Raw())
}

func TestModuleAddressIsDeterministic(t *testing.T) {
	a := ModuleAddress("vault")
	b := ModuleAddress("vault")
	c := ModuleAddress("staking")
	require.Equal(t, a.Raw(), b.Raw())
	require.NotEqual(t, a.Raw(), c.Raw())
	require.False(t, a.IsZero())
}

func TestSignAndRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	digest := Keccak256([]byte("payload"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	signer, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Raw(), signer.Raw())
}

func TestRecoverRejectsMalleableSignature(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	digest := Keccak256([]byte("payload"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	highS := append([]byte(nil), sig...)
	n := ethcrypto.S256().Params().N
	new(big.Int).Sub(n, new(big.Int).SetBytes(sig[32:64])).FillBytes(highS[32:64])
	highS[64] ^= 1
	_, err = RecoverAddress(digest, highS)
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = RecoverAddress(digest, sig[:64])
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys", "caller.json")
	require.NoError(t, SaveToKeystore(path, key, "secret"))

	loaded, err := LoadFromKeystore(path, "secret")
	require.NoError(t, err)
	require.Equal(t, key.Bytes(), loaded.Bytes())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
}
