package apiclient

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first, err := New("http://api.example.test/api")
	require.NoError(t, err)
	first.RestoreSessionCookies([]*http.Cookie{{Name: "storefront_session", Value: "token"}})
	require.NoError(t, first.SaveSessionFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := New("http://api.example.test/api")
	require.NoError(t, err)
	require.NoError(t, second.LoadSessionFile(path))
	cookies := second.SessionCookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Value)

	other, err := New("http://other.example.test/api")
	require.NoError(t, err)
	require.NoError(t, other.LoadSessionFile(path))
	assert.Empty(t, other.SessionCookies(), "cookies are bound to the API they came from")
}

func TestSaveSessionFileRemovesWhenSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	client, err := New("http://api.example.test/api")
	require.NoError(t, err)
	require.NoError(t, client.SaveSessionFile(path))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadSessionFileMissingIsNotAnError(t *testing.T) {
	client, err := New("http://api.example.test/api")
	require.NoError(t, err)
	require.NoError(t, client.LoadSessionFile(filepath.Join(t.TempDir(), "absent.json")))
}
