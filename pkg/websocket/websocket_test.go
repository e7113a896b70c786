package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ersatz/pkg/matching"
	"github.com/getmockd/ersatz/pkg/requestlog"
)

func TestMessage(t *testing.T) {
	assert.True(t, Text("a").Equal(Text("a")))
	assert.False(t, Text("a").Equal(Binary([]byte("a"))))
	assert.False(t, Binary([]byte{1}).Equal(Binary([]byte{2})))
	assert.Equal(t, `text "hi"`, Text("hi").String())
	assert.Equal(t, "binary [01 02]", Binary([]byte{1, 2}).String())

	typ, err := ParseMessageType("binary")
	require.NoError(t, err)
	assert.Equal(t, MessageBinary, typ)
	_, err = ParseMessageType("frame")
	assert.Error(t, err)
}

func TestExpectation_ConnectIdempotent(t *testing.T) {
	exp := NewExpectation("/ws").SendsText("hello")

	assert.False(t, exp.Connected())
	assert.Equal(t, []Message{Text("hello")}, exp.Connect())
	assert.Equal(t, []Message{Text("hello")}, exp.Connect())
	assert.True(t, exp.Connected())
	assert.Equal(t, 2, exp.Connections())
}

func TestExpectation_FindMatch(t *testing.T) {
	exp := NewExpectation("/ws")
	ping := exp.ReceivesText("ping").ReactsText("pong").ReactsBinary([]byte{9})
	exp.ReceivesBinary([]byte{1, 2})

	reactions, ok := exp.FindMatch(Text("ping"))
	require.True(t, ok)
	assert.Equal(t, []Message{Text("pong"), Binary([]byte{9})}, reactions)
	assert.Equal(t, 1, ping.Count())

	reactions, ok = exp.FindMatch(Binary([]byte{1, 2}))
	require.True(t, ok)
	assert.Empty(t, reactions)

	_, ok = exp.FindMatch(Binary([]byte("ping")))
	assert.False(t, ok, "type must match")
	_, ok = exp.FindMatch(Text("other"))
	assert.False(t, ok)
}

func TestExpectation_DuplicateMessagesFillInOrder(t *testing.T) {
	exp := NewExpectation("/ws")
	first := exp.ReceivesText("same").Occurs(matching.Once()).ReactsText("first")
	second := exp.ReceivesText("same").Occurs(matching.Once()).ReactsText("second")

	r1, _ := exp.FindMatch(Text("same"))
	r2, _ := exp.FindMatch(Text("same"))
	r3, _ := exp.FindMatch(Text("same"))

	assert.Equal(t, []Message{Text("first")}, r1)
	assert.Equal(t, []Message{Text("second")}, r2)
	assert.Equal(t, []Message{Text("first")}, r3, "falls back to the first equal message")
	assert.Equal(t, 2, first.Count())
	assert.Equal(t, 1, second.Count())
}

func TestExpectation_ConcurrentDuplicatesFillEachSlot(t *testing.T) {
	for range 200 {
		exp := NewExpectation("/ws")
		first := exp.ReceivesText("same").Occurs(matching.Once())
		second := exp.ReceivesText("same").Occurs(matching.Once())

		var wg sync.WaitGroup
		start := make(chan struct{})
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, ok := exp.FindMatch(Text("same"))
				assert.True(t, ok)
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, 1, first.Count())
		require.Equal(t, 1, second.Count())
	}
}

func TestExpectation_Satisfied(t *testing.T) {
	exp := NewExpectation("/ws")
	exp.ReceivesText("a")
	exp.ReceivesText("b").Occurs(matching.Times(2))

	assert.False(t, exp.Satisfied(), "not connected")
	exp.Connect()
	exp.FindMatch(Text("a"))
	exp.FindMatch(Text("b"))
	assert.False(t, exp.Satisfied())

	exp.FindMatch(Text("b"))
	assert.True(t, exp.Satisfied())
}

func TestExpectation_Snapshot(t *testing.T) {
	exp := NewExpectation("/ws")
	exp.ReceivesText("a")
	exp.ReceivesText("b")
	exp.Connect()
	exp.FindMatch(Text("a"))

	s := exp.Snapshot()
	assert.True(t, s.Connected)
	require.Len(t, s.Messages, 2)
	assert.True(t, s.Messages[0].Satisfied)
	assert.False(t, s.Messages[1].Satisfied)
	assert.Equal(t, 0, s.Messages[1].Count)

	out := s.String()
	assert.Contains(t, out, "WebSocket expectation /ws")
	assert.Contains(t, out, `(+) message 0: text "a" received 1 time(s), expected at least 1`)
	assert.Contains(t, out, `(-) message 1: text "b" received 0 time(s)`)
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) (int, string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return typ, string(data)
}

func TestHandler_Conversation(t *testing.T) {
	exp := NewExpectation("/chat").SendsText("welcome")
	exp.ReceivesText("ping").ReactsText("pong").ReactsText("again")
	exp.ReceivesBinary([]byte{7}).ReactsBinary([]byte{8})

	store := requestlog.NewMemoryStore(0)
	var mu sync.Mutex
	var unmatched []Message
	srv := httptest.NewServer(NewHandler(exp,
		WithRequestLog(store),
		WithUnmatchedHook(func(_ Snapshot, m Message) {
			mu.Lock()
			unmatched = append(unmatched, m)
			mu.Unlock()
		}),
	))
	defer srv.Close()

	conn := dial(t, srv)

	typ, data := readMessage(t, conn)
	assert.Equal(t, gws.TextMessage, typ)
	assert.Equal(t, "welcome", data)

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("unknown")))
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("ping")))
	_, data = readMessage(t, conn)
	assert.Equal(t, "pong", data)
	_, data = readMessage(t, conn)
	assert.Equal(t, "again", data)

	require.NoError(t, conn.WriteMessage(gws.BinaryMessage, []byte{7}))
	typ, data = readMessage(t, conn)
	assert.Equal(t, gws.BinaryMessage, typ)
	assert.Equal(t, "\x08", data)

	assert.True(t, exp.Satisfied())

	mu.Lock()
	assert.Equal(t, []Message{Text("unknown")}, unmatched)
	mu.Unlock()

	entries := store.List(&requestlog.Filter{Protocol: requestlog.ProtocolWebSocket})
	require.Len(t, entries, 3)
	assert.False(t, entries[0].WebSocket.Matched)
	assert.True(t, entries[1].WebSocket.Matched)
	assert.Equal(t, 2, entries[1].WebSocket.Reactions)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	exp := NewExpectation("/chat")
	srv := httptest.NewServer(NewHandler(exp))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.GreaterOrEqual(t, resp.StatusCode, http.StatusBadRequest)
	assert.False(t, exp.Connected())
}
