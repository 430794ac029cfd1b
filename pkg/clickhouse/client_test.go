package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.internal"),
		WithPort(9440),
		WithDatabase("oilpulse"),
		WithCredentials("reader", "p@ss"),
		WithTimeouts(2*time.Second, 30*time.Second),
		WithMaxExecutionTime(time.Minute),
	} {
		opt(cfg)
	}

	u, err := url.Parse(buildDSN(*cfg))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.internal:9440", u.Host)
	assert.Equal(t, "/oilpulse", u.Path)
	assert.Equal(t, "reader", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "2s", u.Query().Get("dial_timeout"))
	assert.Equal(t, "30s", u.Query().Get("read_timeout"))
	assert.Equal(t, "60", u.Query().Get("max_execution_time"))
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithHost("localhost")(cfg)
	WithHTTP(true)(cfg)
	u, err := url.Parse(buildDSN(*cfg))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.EqualError(t, err, "host is required")
}
