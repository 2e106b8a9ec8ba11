package wispr

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectGateway(t *testing.T) {
	f := newFixture(t)
	f.transport.onGet(probeURL, redirectResponse(t, probeURL, "http://10.0.0.1/redirect", "<html>moved</html>"))
	f.transport.onGet("http://10.0.0.1/redirect", redirectResponse(t, "http://10.0.0.1/redirect", "http://10.0.0.1/login",
		wisprBody("Redirect", redirectFields("VersionLow", "1.0", "VersionHigh", "2.0")...)))

	d, err := f.client.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Found)
	assert.Equal(t, "Example Hotspot", d.LocationName)
	assert.Equal(t, "1.0 to 2.0", d.Versions())
	assert.Contains(t, f.logs.String(), `location="Example Hotspot"`)
	assert.Contains(t, f.logs.String(), `versions="1.0 to 2.0"`)
}

func TestDetectLegacyVersion(t *testing.T) {
	f := newFixture(t)
	f.intercept(t, "Redirect", redirectFields()...)

	d, err := f.client.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Found)
	assert.Equal(t, "1.0", d.Versions())
}

func TestDetectAlreadyOnline(t *testing.T) {
	f := newFixture(t)
	f.transport.onGet(probeURL, redirectResponse(t, probeURL, "https://www.google.com/", ""))
	f.transport.onGet("https://www.google.com/", newResponse(t, http.StatusOK, "https://www.google.com/", "<html>search</html>"))

	d, err := f.client.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, d.Found)
	assert.True(t, d.Online)
	assert.Contains(t, f.logs.String(), "already online")
}

func TestDetectNoGateway(t *testing.T) {
	f := newFixture(t)
	f.transport.onGet(probeURL, redirectResponse(t, probeURL, "/splash", ""))
	// relative locations resolve against the request URL
	f.transport.onGet("http://www.google.com/splash", newResponse(t, http.StatusOK, "http://portal.example/splash", "<html>click to accept</html>"))

	d, err := f.client.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, d.Found)
	assert.False(t, d.Online)
	assert.Contains(t, f.logs.String(), "no WISPr gateway found")
}

func TestDetectRedirectWithoutLocation(t *testing.T) {
	f := newFixture(t)
	f.transport.onGet(probeURL, newResponse(t, http.StatusFound, probeURL, ""))

	_, err := f.client.Detect(context.Background())
	require.ErrorIs(t, err, ErrMissingLocation)
}
