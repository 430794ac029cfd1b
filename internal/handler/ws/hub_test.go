package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/store"
	xlogger "OilPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(xlogger.Nop(), time.Second)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readNotice(t *testing.T, conn *websocket.Conn) models.SnapshotNotice {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n models.SnapshotNotice
	require.NoError(t, conn.ReadJSON(&n))
	return n
}

func snapshot(gen uint64) *store.Snapshot {
	return &store.Snapshot{
		Generation: gen,
		LoadedAt:   time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC),
		Source:     "file",
		Prices:     make([]models.PriceObservation, 3),
	}
}

func TestHubSendsCurrentSnapshotOnConnect(t *testing.T) {
	hub, url := startHub(t)
	hub.Publish(snapshot(4))

	conn := dial(t, url)
	n := readNotice(t, conn)
	assert.Equal(t, uint64(4), n.Generation)
	assert.Equal(t, 3, n.Prices)
	assert.Equal(t, "file", n.Source)
}

func TestHubBroadcastsReloads(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(snapshot(7))
	assert.Equal(t, uint64(7), readNotice(t, a).Generation)
	assert.Equal(t, uint64(7), readNotice(t, b).Generation)
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
