package wireless

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T, handler LineHandler) (*Server, *websocket.Conn) {
	t.Helper()
	s := New(Config{Handler: handler})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	wsURL := "ws" + ts.URL[4:] + "/control"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return s, conn
}

func readLine(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(message)
}

func TestCommandRoundTrip(t *testing.T) {
	echo := func(line string, reply func(string)) { reply("got " + line) }
	_, conn := dialTestServer(t, echo)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("START")))
	assert.Equal(t, "got START", readLine(t, conn))
}

func TestMultipleLinesPerMessage(t *testing.T) {
	var got []string
	done := make(chan struct{})
	handler := func(line string, reply func(string)) {
		got = append(got, line)
		if len(got) == 2 {
			close(done)
		}
	}
	_, conn := dialTestServer(t, handler)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("STOP\n\nCONFIG\n")))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not see both lines")
	}
	assert.Equal(t, []string{"STOP", "CONFIG"}, got)
}

func TestBroadcastReachesClient(t *testing.T) {
	s, conn := dialTestServer(t, func(string, func(string)) {})

	// The client registers before the upgrade response returns, but
	// give the pumps a moment to spin up on slow runners.
	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	s.Broadcast("T:1.000,2.000")
	assert.Equal(t, "T:1.000,2.000", readLine(t, conn))
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	s, conn := dialTestServer(t, func(string, func(string)) {})
	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.ClientCount() == 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestStopClosesClients(t *testing.T) {
	s, conn := dialTestServer(t, func(string, func(string)) {})
	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.Equal(t, 0, s.ClientCount())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
