package save

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialStore(t *testing.T) {
	t.Parallel()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		store := NewCredentialStore(NewPlainKeyringFallback(afero.NewMemMapFs(), testConfigDir))

		creds, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, Credentials{}, creds)
	})

	t.Run("save load delete", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		store := NewCredentialStore(NewPlainKeyringFallback(fs, testConfigDir))

		want := Credentials{IRCToken: "oauth:abc", ClientSecret: "secret"}
		require.NoError(t, store.Save(want))

		// a second store on the same file sees the entry
		got, err := NewCredentialStore(NewPlainKeyringFallback(fs, testConfigDir)).Load()
		require.NoError(t, err)
		require.Equal(t, want, got)

		require.NoError(t, store.Delete())
		require.NoError(t, store.Delete())

		got, err = store.Load()
		require.NoError(t, err)
		require.Equal(t, Credentials{}, got)
	})
}

func TestPlainKeyringFallback(t *testing.T) {
	t.Parallel()

	k := NewPlainKeyringFallback(afero.NewMemMapFs(), testConfigDir)

	_, err := k.Get("svc", "user")
	require.ErrorIs(t, err, keyring.ErrNotFound)

	require.NoError(t, k.Set("svc", "a", "1"))
	require.NoError(t, k.Set("svc", "b", "2"))
	require.NoError(t, k.Set("other", "a", "3"))

	v, err := k.Get("svc", "a")
	require.NoError(t, err)
	require.Equal(t, "1", v)

	require.ErrorIs(t, k.Delete("svc", "missing"), keyring.ErrNotFound)

	require.NoError(t, k.DeleteAll("svc"))

	_, err = k.Get("svc", "b")
	require.ErrorIs(t, err, keyring.ErrNotFound)

	v, err = k.Get("other", "a")
	require.NoError(t, err)
	require.Equal(t, "3", v)
}

func TestKeyringWrapper(t *testing.T) {
	keyring.MockInit()

	store := NewCredentialStore(NewKeyringWrapper())

	require.NoError(t, store.Save(Credentials{IRCToken: "oauth:abc"}))

	creds, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "oauth:abc", creds.IRCToken)

	require.NoError(t, store.Delete())

	k, usable := NewKeyring(afero.NewMemMapFs(), testConfigDir)
	require.True(t, usable)
	require.IsType(t, &KeyringWrapper{}, k)
}
