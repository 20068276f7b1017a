package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"profile-service/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForViewers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Len() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsCreatedProfiles(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(NewSocketHandler(hub, nil, zap.NewNop()))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForViewers(t, hub, 2)

	p := &domain.Profile{ID: "p-1", Name: "Ava", Role: "Scout", EncryptedID: "0123456789AB"}
	require.NoError(t, hub.PublishProfileCreated(context.Background(), p))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev domain.ProfileEvent
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, domain.EventProfileCreated, ev.Type)
		assert.Equal(t, "p-1", ev.Profile.ID)
	}
}

func TestHubForgetsClosedViewers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(NewSocketHandler(hub, nil, zap.NewNop()))
	defer srv.Close()

	conn := dial(t, srv)
	waitForViewers(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForViewers(t, hub, 0)
}

func TestStalledViewerDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(NewSocketHandler(hub, nil, zap.NewNop()))
	defer srv.Close()

	// never reads, so the socket buffers fill and writes stall
	dial(t, srv)
	waitForViewers(t, hub, 1)

	bio := strings.Repeat("x", 32<<10)
	p := &domain.Profile{ID: "p-1", Name: "Ava", Role: "Scout", Bio: &bio}

	start := time.Now()
	for i := 0; i < 2000 && hub.Len() > 0; i++ {
		require.NoError(t, hub.PublishProfileCreated(context.Background(), p))
	}
	assert.Less(t, time.Since(start), writeWait)
	waitForViewers(t, hub, 0)
}

func TestSocketHandlerRejectsForeignOrigin(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(NewSocketHandler(hub, []string{"http://cards.local"}, zap.NewNop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, 0, hub.Len())
}

func TestHeartbeatStopsWithContext(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Heartbeat(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat did not stop")
	}
}
