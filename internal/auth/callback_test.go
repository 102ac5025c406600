package auth

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startCallbackServer(t *testing.T) *callbackServer {
	t.Helper()
	server, err := newCallbackServer(0)
	require.NoError(t, err)
	t.Cleanup(server.Close)
	return server
}

func TestCallbackServer_CapturesCode(t *testing.T) {
	server := startCallbackServer(t)

	resp, err := http.Get(server.RedirectURI() + "?code=ABC123&state=xyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result, ok := server.Wait(time.Second)
	require.True(t, ok)
	assert.Equal(t, "ABC123", result.Code)
	assert.Equal(t, "xyz", result.State)
	assert.Empty(t, result.Err)
}

func TestCallbackServer_CapturesDenial(t *testing.T) {
	server := startCallbackServer(t)

	resp, err := http.Get(server.RedirectURI() + "?error=access_denied&error_description=User+denied")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	result, ok := server.Wait(time.Second)
	require.True(t, ok)
	assert.Empty(t, result.Code)
	assert.Equal(t, "User denied", result.Err)
}

func TestCallbackServer_DenialWithoutDescription(t *testing.T) {
	server := startCallbackServer(t)

	resp, err := http.Get(server.RedirectURI() + "?error=access_denied")
	require.NoError(t, err)
	resp.Body.Close()

	result, ok := server.Wait(time.Second)
	require.True(t, ok)
	assert.Equal(t, "Unknown error", result.Err)
}

func TestCallbackServer_WaitTimesOut(t *testing.T) {
	server := startCallbackServer(t)

	_, ok := server.Wait(20 * time.Millisecond)
	assert.False(t, ok)
}

func TestCallbackServer_OnlyFirstRedirectCounts(t *testing.T) {
	server := startCallbackServer(t)

	for i, code := range []string{"FIRST", "SECOND"} {
		resp, err := http.Get(fmt.Sprintf("%s?code=%s", server.RedirectURI(), code))
		require.NoError(t, err, "request %d", i)
		resp.Body.Close()
	}

	result, ok := server.Wait(time.Second)
	require.True(t, ok)
	assert.Equal(t, "FIRST", result.Code)

	// No second result is ever delivered.
	_, ok = server.Wait(20 * time.Millisecond)
	assert.False(t, ok)
}

func TestCallbackServer_UnknownPathIs404(t *testing.T) {
	server := startCallbackServer(t)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/other", server.Port()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
