package requestlog

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LogAssignsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore(10)
	entry := &Entry{Protocol: ProtocolHTTP, Method: "GET", Path: "/a"}

	store.Log(entry)
	store.Log(nil)

	require.Equal(t, 1, store.Count())
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Same(t, entry, store.Get(entry.ID))
	assert.Nil(t, store.Get("missing"))
}

func TestMemoryStore_DropsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		store.Log(&Entry{Path: fmt.Sprintf("/%d", i)})
	}

	entries := store.List(nil)
	require.Len(t, entries, 3)
	assert.Equal(t, "/2", entries[0].Path)
	assert.Equal(t, "/4", entries[2].Path)
}

func TestMemoryStore_Filter(t *testing.T) {
	store := NewMemoryStore(0)
	store.Log(&Entry{Protocol: ProtocolHTTP, Method: "GET", Path: "/users/1", MatchedID: "e1", ResponseStatus: 200})
	store.Log(&Entry{Protocol: ProtocolHTTP, Method: "POST", Path: "/users", MatchedID: "e2", ResponseStatus: 201})
	store.Log(&Entry{Protocol: ProtocolHTTP, Method: "GET", Path: "/other", ResponseStatus: 404})
	store.Log(&Entry{Protocol: ProtocolWebSocket, Path: "/ws", MatchedID: "w1"})

	tests := []struct {
		name   string
		filter *Filter
		want   int
	}{
		{"all", nil, 4},
		{"protocol", &Filter{Protocol: ProtocolWebSocket}, 1},
		{"method ignores case", &Filter{Method: "get"}, 2},
		{"path prefix", &Filter{Path: "/users"}, 2},
		{"matched id", &Filter{MatchedID: "e2"}, 1},
		{"status", &Filter{StatusCode: 404}, 1},
		{"unmatched", &Filter{Unmatched: true}, 1},
		{"limit", &Filter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, store.List(tt.filter), tt.want)
		})
	}

	store.Clear()
	assert.Zero(t, store.Count())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Log(&Entry{Path: "/x"})
				_ = store.List(&Filter{Path: "/x", Limit: 5})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, store.Count())
}

func TestTruncateBody(t *testing.T) {
	assert.Equal(t, "short", TruncateBody([]byte("short")))

	long := strings.Repeat("a", MaxBodyLength+5)
	out := TruncateBody([]byte(long))
	assert.True(t, strings.HasSuffix(out, "...(truncated)"))
	assert.Len(t, out, MaxBodyLength+len("...(truncated)"))
}
