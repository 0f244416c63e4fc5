package ipchecker

import (
	"net"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledChecker(t *testing.T) {
	checker, err := New("")
	require.NoError(t, err)

	assert.False(t, checker.Enabled())
	assert.False(t, checker.Check(net.ParseIP("192.168.1.10")))
}

func TestInvalidSubnet(t *testing.T) {
	_, err := New("not-a-cidr")
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	assert.True(t, checker.Enabled())
	assert.True(t, checker.Check(net.ParseIP("192.168.1.10")))
	assert.False(t, checker.Check(net.ParseIP("10.0.0.1")))
}

func TestClientIPPrefersRealIPHeader(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	request := httptest.NewRequest("GET", "/api/internal/stats", nil)
	request.Header.Set("X-Real-IP", "192.168.1.10")
	request.Header.Set("X-Forwarded-For", "10.0.0.1")

	ip, err := checker.ClientIP(request)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", ip.String())
}

func TestClientIPFallsBackToForwardedFor(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	request := httptest.NewRequest("GET", "/api/internal/stats", nil)
	request.Header.Set("X-Forwarded-For", "192.168.1.20, 10.0.0.1")

	ip, err := checker.ClientIP(request)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", ip.String())
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	request := httptest.NewRequest("GET", "/api/internal/stats", nil)
	request.RemoteAddr = "192.168.1.30:54321"

	ip, err := checker.ClientIP(request)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.30", ip.String())
}
