package serve

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestLiveReloadHub_BroadcastReachesClient(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	defer hub.Shutdown()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	// Initial comment arrives once the client is registered.
	require.Equal(t, ": connected", <-lines)
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast("abc123")

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if line != "" {
				got = append(got, line)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for broadcast, got %v", got)
		}
	}
	assert.Equal(t, "event: reload", got[0])
	assert.Equal(t, "data: abc123", got[1])
}

func TestLiveReloadHub_DuplicateHashNotRebroadcast(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	defer hub.Shutdown()

	hub.Broadcast("same")
	hub.Broadcast("same")
	// An empty hash is also ignored.
	hub.Broadcast("")
	assert.Equal(t, "same", hub.lastHash)
}

func TestLiveReloadHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	hub.Shutdown()

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livereload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shutting down"))
}
