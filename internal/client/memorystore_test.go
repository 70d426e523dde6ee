package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

func newTestMemoryStore(server *httptest.Server) *MemoryStoreClient {
	httpClient := internalhttp.NewClient(server.URL, nil)

	return NewMemoryStoreClient(httpClient, NewOperationsClient(httpClient))
}

func TestBuildSortedMapFilter(t *testing.T) {
	tests := []struct {
		name     string
		opts     opencloud.SortedMapListOptions
		expected string
	}{
		{
			name:     "no bounds",
			opts:     opencloud.SortedMapListOptions{},
			expected: "",
		},
		{
			name:     "string bounds are quoted",
			opts:     opencloud.SortedMapListOptions{LowerBoundKey: "aaa", UpperBoundKey: "zzz"},
			expected: `id > "aaa" && id < "zzz"`,
		},
		{
			name:     "numeric sort key bounds",
			opts:     opencloud.SortedMapListOptions{LowerBoundSortKey: 10, UpperBoundSortKey: 99},
			expected: "sortKey > 10 && sortKey < 99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildSortedMapFilter(&tt.opts))
		})
	}
}

func TestMemoryStoreClient_SortedMapList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cloud/v2/universes/1234/memory-store/sorted-maps/Leaderboard/items", r.URL.Path)
		assert.Equal(t, "desc", r.URL.Query().Get("orderBy"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "alice", "value": 120, "etag": "e1", "numericSortKey": 120.0},
				{"id": "bob", "value": 90, "etag": "e2", "stringSortKey": "b"},
			},
		})
	}))
	defer server.Close()

	memorystore := newTestMemoryStore(server)

	items, err := memorystore.SortedMapList(context.Background(), 1234, "Leaderboard",
		&opencloud.SortedMapListOptions{Descending: true}).All()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "alice", items[0].Key)
	assert.Equal(t, 120.0, items[0].SortKey)
	assert.Equal(t, "b", items[1].SortKey)
}

func TestMemoryStoreClient_SortedMapSet(t *testing.T) {
	t.Run("default write patches with allowMissing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "PATCH", r.Method)
			assert.Equal(t, "/cloud/v2/universes/1234/memory-store/sorted-maps/Leaderboard/items/alice", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("allowMissing"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "300s", body["ttl"])
			assert.Equal(t, 120.0, body["numericSortKey"])

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "alice", "value": 120, "etag": "e3"})
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		entry, err := memorystore.SortedMapSet(context.Background(), 1234, "Leaderboard", "alice",
			120, 5*time.Minute, &opencloud.SortedMapSetOptions{SortKey: 120.0})
		require.NoError(t, err)
		assert.Equal(t, "e3", entry.Etag)
	})

	t.Run("exclusive create posts and reports conflicts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"ALREADY_EXISTS"}`))
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		_, err := memorystore.SortedMapSet(context.Background(), 1234, "Leaderboard", "alice",
			120, time.Minute, &opencloud.SortedMapSetOptions{ExclusiveCreate: true})
		require.Error(t, err)
		assert.True(t, opencloud.IsPreconditionFailed(err))
	})

	t.Run("exclusive update reports missing keys", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "false", r.URL.Query().Get("allowMissing"))
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		_, err := memorystore.SortedMapSet(context.Background(), 1234, "Leaderboard", "ghost",
			1, time.Minute, &opencloud.SortedMapSetOptions{ExclusiveUpdate: true})
		require.Error(t, err)
		assert.True(t, opencloud.IsPreconditionFailed(err))
	})

	t.Run("both exclusive conditions rejected", func(t *testing.T) {
		memorystore := NewMemoryStoreClient(internalhttp.NewClient("http://unused.invalid", nil), nil)

		_, err := memorystore.SortedMapSet(context.Background(), 1234, "Leaderboard", "alice",
			1, time.Minute, &opencloud.SortedMapSetOptions{ExclusiveCreate: true, ExclusiveUpdate: true})
		assert.ErrorIs(t, err, opencloud.ErrExclusiveConditions)
	})
}

func TestMemoryStoreClient_Queue(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cloud/v2/universes/1234/memory-store/queues/Jobs/items:add", r.URL.Path)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "45s", body["ttl"])
			assert.Equal(t, 2.0, body["priority"])

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		err := memorystore.QueueAdd(context.Background(), 1234, "Jobs", "job-payload", 45*time.Second, 2)
		require.NoError(t, err)
	})

	t.Run("read returns items and read id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cloud/v2/universes/1234/memory-store/queues/Jobs/items:read", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("count"))
			assert.Equal(t, "60", r.URL.Query().Get("invisibilityTimeoutSeconds"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []any{"first", "second"},
				"id":   "read-1",
			})
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		result, err := memorystore.QueueRead(context.Background(), 1234, "Jobs", &opencloud.QueueReadOptions{
			Count:               2,
			InvisibilityTimeout: time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, "read-1", result.ReadID)
		require.Len(t, result.Items, 2)
		assert.JSONEq(t, `"first"`, string(result.Items[0]))
	})

	t.Run("read of an empty queue yields no read id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		result, err := memorystore.QueueRead(context.Background(), 1234, "Jobs", nil)
		require.NoError(t, err)
		assert.Empty(t, result.ReadID)
		assert.Empty(t, result.Items)
	})

	t.Run("discard", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cloud/v2/universes/1234/memory-store/queues/Jobs/items:discard", r.URL.Path)
			assert.Equal(t, "read-1", r.URL.Query().Get("readId"))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		memorystore := newTestMemoryStore(server)

		err := memorystore.QueueDiscard(context.Background(), 1234, "Jobs", "read-1")
		require.NoError(t, err)
	})
}

func TestMemoryStoreClient_Flush(t *testing.T) {
	var polls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cloud/v2/universes/1234/memory-store:flush":
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"path": "universes/1234/memory-store/operations/op-7"}`))
		case "/cloud/v2/universes/1234/memory-store/operations/op-7":
			polls++
			_, _ = w.Write([]byte(`{"path": "op-7", "done": true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	memorystore := newTestMemoryStore(server)

	operation, err := memorystore.Flush(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, "/cloud/v2/universes/1234/memory-store/operations/op-7", operation.Path())
	assert.False(t, operation.Done())

	done, finished, err := operation.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, finished)
	assert.True(t, done)
	assert.Equal(t, 1, polls)
}
